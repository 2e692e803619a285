package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dealhawk/cardmatch/internal/model"
)

var (
	matchInput       string
	matchTitle       string
	matchSellerID    string
	matchLimit       int
	matchConcurrency int
	matchSave        bool
	matchFormat      string
	matchOutput      string
)

// matchOutcome pairs a listing with whichever of match or rejection it
// produced, for reporting.
type matchOutcome struct {
	ListingID string             `json:"listing_id"`
	Title     string             `json:"title"`
	Result    *model.MatchResult `json:"result,omitempty"`
	Rejection *model.Rejection   `json:"rejection,omitempty"`
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match marketplace listings against the reference catalog",
	Long: `Runs the full pipeline on one listing or a JSON file of listings:
junk classification, signal extraction, candidate retrieval, validation,
variant resolution and confidence scoring.

Examples:
  # Single listing from flags
  cardmatch match --title "Charizard ex 199/165 PSA 10"

  # Batch from a JSON array of listings, persisting accepted matches
  cardmatch match --input listings.json --save --format table`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := interruptContext(cmd.Context())
		defer stop()

		listings, err := loadListings()
		if err != nil {
			return err
		}
		if matchLimit > 0 && matchLimit < len(listings) {
			listings = listings[:matchLimit]
		}

		env, err := initMatchEnv(ctx)
		if err != nil {
			return eris.Wrap(err, "match: init pipeline")
		}
		defer env.Close()

		concurrency := matchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.Concurrency
		}
		limiter := rate.NewLimiter(rate.Limit(cfg.Batch.CatalogQPS), 1)

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		var mu sync.Mutex
		outcomes := make([]matchOutcome, len(listings))
		var matched, rejected, failed atomic.Int64

		for i, listing := range listings {
			g.Go(func() error {
				if err := limiter.Wait(gCtx); err != nil {
					return err
				}

				result, rejection, runErr := env.Matcher.Match(gCtx, listing)
				if runErr != nil {
					failed.Add(1)
					zap.L().Error("match: listing failed",
						zap.String("listing_id", listing.ID),
						zap.Error(runErr),
					)
					return nil // individual failures do not abort the batch
				}

				if result != nil {
					matched.Add(1)
					if matchSave {
						if saveErr := env.Store.SaveMatchResult(gCtx, result); saveErr != nil {
							zap.L().Error("match: save result",
								zap.String("listing_id", listing.ID),
								zap.Error(saveErr),
							)
						}
					}
				} else {
					rejected.Add(1)
				}

				mu.Lock()
				outcomes[i] = matchOutcome{
					ListingID: listing.ID,
					Title:     listing.Title,
					Result:    result,
					Rejection: rejection,
				}
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "match: batch")
		}

		zap.L().Info("match: batch complete",
			zap.Int("total", len(listings)),
			zap.Int64("matched", matched.Load()),
			zap.Int64("rejected", rejected.Load()),
			zap.Int64("failed", failed.Load()),
		)

		return writeOutcomes(outcomes)
	},
}

func init() {
	matchCmd.Flags().StringVar(&matchInput, "input", "", "path to JSON file holding an array of listings")
	matchCmd.Flags().StringVar(&matchTitle, "title", "", "single listing title (alternative to --input)")
	matchCmd.Flags().StringVar(&matchSellerID, "seller", "", "seller ID for the single listing")
	matchCmd.Flags().IntVar(&matchLimit, "limit", 0, "max listings to process (0 = all)")
	matchCmd.Flags().IntVar(&matchConcurrency, "concurrency", 0, "max listings in flight (0 = config default)")
	matchCmd.Flags().BoolVar(&matchSave, "save", false, "persist accepted matches to the store")
	matchCmd.Flags().StringVar(&matchFormat, "format", "table", "output format: table or json")
	matchCmd.Flags().StringVar(&matchOutput, "output", "", "write output to file (default: stdout)")
	rootCmd.AddCommand(matchCmd)
}

func loadListings() ([]model.Listing, error) {
	if matchInput == "" && matchTitle == "" {
		return nil, eris.New("match: either --input or --title is required")
	}
	if matchTitle != "" {
		return []model.Listing{{
			ID:       "cli",
			Title:    matchTitle,
			SellerID: matchSellerID,
		}}, nil
	}

	data, err := os.ReadFile(matchInput)
	if err != nil {
		return nil, eris.Wrap(err, "match: read input")
	}
	var listings []model.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, eris.Wrap(err, "match: parse input")
	}
	return listings, nil
}

func writeOutcomes(outcomes []matchOutcome) error {
	w := os.Stdout
	if matchOutput != "" {
		f, err := os.Create(matchOutput)
		if err != nil {
			return eris.Wrap(err, "match: create output file")
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	if matchFormat == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	}

	sort.SliceStable(outcomes, func(i, j int) bool {
		var ci, cj float64
		if outcomes[i].Result != nil {
			ci = outcomes[i].Result.Composite
		}
		if outcomes[j].Result != nil {
			cj = outcomes[j].Result.Composite
		}
		return ci > cj
	})

	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Result != nil {
			rows = append(rows, []string{
				o.ListingID,
				truncate(o.Title, 48),
				o.Result.CardID,
				o.Result.VariantID,
				strconv.FormatFloat(o.Result.Composite, 'f', 3, 64),
				string(o.Result.Strategy),
			})
			continue
		}
		detail := ""
		if o.Rejection != nil {
			detail = string(o.Rejection.Reason)
			if o.Rejection.Junk != "" {
				detail += "/" + string(o.Rejection.Junk)
			}
		}
		rows = append(rows, []string{o.ListingID, truncate(o.Title, 48), "-", "-", "-", detail})
	}

	_, err := fmt.Fprintln(w, renderTable(
		[]string{"LISTING", "TITLE", "CARD", "VARIANT", "CONFIDENCE", "STRATEGY"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
