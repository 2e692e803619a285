// Package match resolves normalized listings to catalog cards: a
// four-strategy retrieval cascade, name and expansion validators, variant
// resolution, and the composite-confidence pipeline.
package match

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dealhawk/cardmatch/internal/config"
	"github.com/dealhawk/cardmatch/internal/model"
)

// CatalogStore provides the four catalog query shapes, one per retrieval
// strategy.
type CatalogStore interface {
	ByNumberDenominator(ctx context.Context, value, denominator string) ([]model.CatalogCard, error)
	ByNumberPrefix(ctx context.Context, value, prefix string) ([]model.CatalogCard, error)
	ByNumber(ctx context.Context, value string, limit int) ([]model.CatalogCard, error)
	ByNameFuzzy(ctx context.Context, name string, limit int) ([]model.CatalogCard, error)
}

// Retriever runs the strategy cascade: most specific first, first
// non-empty result wins.
type Retriever struct {
	catalog CatalogStore
	cfg     config.MatcherConfig
}

// NewRetriever creates a Retriever over the given catalog.
func NewRetriever(catalog CatalogStore, cfg config.MatcherConfig) *Retriever {
	return &Retriever{catalog: catalog, cfg: cfg}
}

// Retrieve returns the candidate set and the strategy that produced it.
// An empty set with a nil error means no strategy applied or matched.
func (r *Retriever) Retrieve(ctx context.Context, nl *model.NormalizedListing) ([]model.CatalogCard, model.Strategy, error) {
	num := nl.Number

	if num != nil && num.Value != "" {
		if num.Denominator != "" {
			cards, err := r.catalog.ByNumberDenominator(ctx, num.Value, num.Denominator)
			if err != nil {
				return nil, "", eris.Wrap(err, "match: query by number+denominator")
			}
			if len(cards) > 0 {
				return cards, model.StrategyNumberDenominator, nil
			}
		}

		if num.Prefix != "" {
			cards, err := r.catalog.ByNumberPrefix(ctx, num.Value, num.Prefix)
			if err != nil {
				return nil, "", eris.Wrap(err, "match: query by number+prefix")
			}
			if len(cards) > 0 {
				return cards, model.StrategyNumberPrefix, nil
			}
		}

		cards, err := r.catalog.ByNumber(ctx, num.Value, r.cfg.NumberCap)
		if err != nil {
			return nil, "", eris.Wrap(err, "match: query by number")
		}
		if len(cards) > r.cfg.NarrowAbove && nl.SetName != "" {
			if narrowed := narrowBySet(cards, nl.SetName); len(narrowed) > 0 {
				zap.L().Debug("match: narrowed by set",
					zap.String("listing_id", nl.ListingID),
					zap.Int("before", len(cards)),
					zap.Int("after", len(narrowed)),
				)
				cards = narrowed
			}
		}
		if len(cards) > 0 {
			return cards, model.StrategyNumberOnly, nil
		}
		return nil, "", nil
	}

	if nl.Name != "" {
		cards, err := r.catalog.ByNameFuzzy(ctx, nl.Name, r.cfg.FuzzyCap)
		if err != nil {
			return nil, "", eris.Wrap(err, "match: fuzzy name query")
		}
		return cards, model.StrategyFuzzyName, nil
	}

	return nil, "", nil
}

// narrowBySet keeps candidates whose set name or code textually matches
// the extracted set hint.
func narrowBySet(cards []model.CatalogCard, setHint string) []model.CatalogCard {
	hint := strings.ToLower(setHint)
	var kept []model.CatalogCard
	for _, c := range cards {
		name := strings.ToLower(c.SetName)
		code := strings.ToLower(c.SetCode)
		if name != "" && (strings.Contains(name, hint) || strings.Contains(hint, name)) {
			kept = append(kept, c)
			continue
		}
		if code != "" && code == hint {
			kept = append(kept, c)
		}
	}
	return kept
}
