// Package confusion remembers previously-confirmed wrong matches keyed by
// normalized collector number, and biases candidate ranking away from them
// (and toward recorded corrections) before scoring.
package confusion

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dealhawk/cardmatch/internal/model"
)

// Ranking adjustments. These apply to the candidate selection score, not
// to the stored confidence signals.
const (
	WrongPenalty    = 0.15
	CorrectionBoost = 0.10
)

// Store reads the authoritative confusion records: the most recent record
// per (number key, wrong card) pair.
type Store interface {
	ListConfusionRecords(ctx context.Context) ([]model.ConfusionRecord, error)
}

// Bias is the cached verdict for one (number key, card) pair.
type Bias struct {
	KnownWrong      bool
	KnownCorrection bool
}

// Adjustment converts the verdict into a selection-score delta.
func (b Bias) Adjustment() float64 {
	adj := 0.0
	if b.KnownWrong {
		adj -= WrongPenalty
	}
	if b.KnownCorrection {
		adj += CorrectionBoost
	}
	return adj
}

type snapshot struct {
	byKey     map[string]map[string]Bias
	fetchedAt time.Time
}

// Cache is a TTL-refreshed in-memory view of the confusion table.
// The snapshot is replaced wholesale; readers see either the old or the
// new version, never a partial one. Refresh failures keep the previous
// snapshot.
type Cache struct {
	store Store
	ttl   time.Duration

	mu   sync.Mutex
	snap atomic.Pointer[snapshot]
}

// NewCache creates a Cache refreshing at most once per ttl.
func NewCache(store Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl}
}

// Lookup returns the bias for a candidate card under the given number
// key. An empty key (no number extracted) always yields a zero bias.
func (c *Cache) Lookup(ctx context.Context, numberKey, cardID string) Bias {
	if numberKey == "" {
		return Bias{}
	}
	snap := c.current(ctx)
	if snap == nil {
		return Bias{}
	}
	return snap.byKey[numberKey][cardID]
}

func (c *Cache) current(ctx context.Context) *snapshot {
	if snap := c.snap.Load(); snap != nil && time.Since(snap.fetchedAt) < c.ttl {
		return snap
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if snap := c.snap.Load(); snap != nil && time.Since(snap.fetchedAt) < c.ttl {
		return snap
	}

	records, err := c.store.ListConfusionRecords(ctx)
	if err != nil {
		zap.L().Warn("confusion: refresh failed, serving stale snapshot",
			zap.Error(err),
		)
		return c.snap.Load()
	}

	c.snap.Store(build(records))
	zap.L().Debug("confusion: refreshed", zap.Int("records", len(records)))
	return c.snap.Load()
}

// build indexes records by number key. The store already returns only the
// latest record per (key, wrong card) pair.
func build(records []model.ConfusionRecord) *snapshot {
	byKey := make(map[string]map[string]Bias)
	for _, r := range records {
		m := byKey[r.NumberKey]
		if m == nil {
			m = make(map[string]Bias)
			byKey[r.NumberKey] = m
		}
		wrong := m[r.WrongCardID]
		wrong.KnownWrong = true
		m[r.WrongCardID] = wrong

		if r.CorrectCardID != "" {
			corr := m[r.CorrectCardID]
			corr.KnownCorrection = true
			m[r.CorrectCardID] = corr
		}
	}
	return &snapshot{byKey: byKey, fetchedAt: time.Now()}
}
