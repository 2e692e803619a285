package junk

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SignalStore provides the learned junk signals: tokens reviewers have
// reported as junk-indicative and per-seller report counts.
type SignalStore interface {
	JunkSignals(ctx context.Context) (tokens map[string]int, sellers map[string]int, err error)
}

// Snapshot is an immutable view of the learned signals, replaced wholesale
// on refresh.
type Snapshot struct {
	Tokens    map[string]int
	Sellers   map[string]int
	FetchedAt time.Time
}

// Learned-penalty shape. The seller component is capped so a single
// repeat-offending seller can never zero a title score on its own.
const (
	tokenPenaltyStep = 0.05
	tokenPenaltyMax  = 4
	sellerPenalty    = 0.05
	sellerPenaltyCap = 0.30
)

// Penalty computes the learned junk penalty for a tokenized title and
// seller against a snapshot. Pure; safe with a nil snapshot.
func Penalty(snap *Snapshot, tokens []string, sellerID string) float64 {
	if snap == nil {
		return 0
	}

	hits := 0
	for _, tok := range tokens {
		if snap.Tokens[tok] > 0 {
			hits++
		}
	}
	p := tokenPenaltyStep * math.Min(float64(hits), tokenPenaltyMax)

	if sellerID != "" {
		reports := snap.Sellers[sellerID]
		p += math.Min(sellerPenalty*float64(reports), sellerPenaltyCap)
	}

	return p
}

// Refresher maintains a TTL-refreshed Snapshot from a SignalStore.
// Readers always observe a complete snapshot; a refresh failure keeps the
// previous one.
type Refresher struct {
	store SignalStore
	ttl   time.Duration

	mu   sync.Mutex
	snap *Snapshot
}

// NewRefresher creates a Refresher with the given TTL.
func NewRefresher(store SignalStore, ttl time.Duration) *Refresher {
	return &Refresher{store: store, ttl: ttl}
}

// Snapshot returns the current snapshot, refreshing it first when stale.
// Returns nil when no snapshot has ever been loaded.
func (r *Refresher) Snapshot(ctx context.Context) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.snap != nil && time.Since(r.snap.FetchedAt) < r.ttl {
		return r.snap
	}

	tokens, sellers, err := r.store.JunkSignals(ctx)
	if err != nil {
		zap.L().Warn("junk: signal refresh failed, serving stale snapshot",
			zap.Error(err),
		)
		return r.snap
	}

	r.snap = &Snapshot{Tokens: tokens, Sellers: sellers, FetchedAt: time.Now()}
	zap.L().Debug("junk: refreshed learned signals",
		zap.Int("tokens", len(tokens)),
		zap.Int("sellers", len(sellers)),
	)
	return r.snap
}
