// Package store persists and serves the matcher's data: the reference
// catalog, match results and reviews, weight-set versions, confusion
// records, and learned junk signals. Postgres is the primary backend;
// SQLite serves single-box deployments.
package store

import (
	"context"

	"github.com/dealhawk/cardmatch/internal/model"
)

// Store is the full persistence interface.
type Store interface {
	// Catalog reads, one query shape per retrieval strategy.
	ByNumberDenominator(ctx context.Context, value, denominator string) ([]model.CatalogCard, error)
	ByNumberPrefix(ctx context.Context, value, prefix string) ([]model.CatalogCard, error)
	ByNumber(ctx context.Context, value string, limit int) ([]model.CatalogCard, error)
	ByNameFuzzy(ctx context.Context, name string, limit int) ([]model.CatalogCard, error)

	// Matches and reviews.
	SaveMatchResult(ctx context.Context, mr *model.MatchResult) error
	GetMatchResult(ctx context.Context, matchID string) (*model.MatchResult, error)
	SaveReview(ctx context.Context, review model.Review) error
	ListReviewedMatches(ctx context.Context) ([]model.ReviewedMatch, error)

	// Weight sets, append-only.
	ActiveWeightSet(ctx context.Context) (model.WeightSet, error)
	SaveWeightSet(ctx context.Context, ws model.WeightSet) error
	ListWeightSets(ctx context.Context, limit int) ([]model.WeightSet, error)

	// Confusion memory.
	SaveConfusionRecord(ctx context.Context, rec model.ConfusionRecord) error
	ListConfusionRecords(ctx context.Context) ([]model.ConfusionRecord, error)
	ListConfusionByKey(ctx context.Context, numberKey string) ([]model.ConfusionRecord, error)

	// Learned junk signals.
	JunkSignals(ctx context.Context) (tokens map[string]int, sellers map[string]int, err error)

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}
