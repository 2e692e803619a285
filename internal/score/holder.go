package score

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dealhawk/cardmatch/internal/model"
)

// Holder owns the active weight set behind a single atomically-swapped
// reference. Scorers read the whole set per call; the calibrator replaces
// it wholesale. Readers never observe a partial update.
type Holder struct {
	ptr atomic.Pointer[model.WeightSet]
}

// NewHolder creates a Holder seeded with ws, or the defaults when ws is
// invalid.
func NewHolder(ws model.WeightSet) *Holder {
	h := &Holder{}
	if !ws.Valid() {
		ws = model.DefaultWeightSet()
	}
	h.ptr.Store(&ws)
	return h
}

// Load returns the active weight set by value.
func (h *Holder) Load() model.WeightSet {
	return *h.ptr.Load()
}

// Swap atomically replaces the active weight set. Invalid sets are
// rejected and the active set is kept.
func (h *Holder) Swap(ws model.WeightSet) bool {
	if !ws.Valid() {
		zap.L().Warn("score: rejected invalid weight set",
			zap.String("version", ws.Version),
		)
		return false
	}
	old := h.ptr.Swap(&ws)
	zap.L().Info("score: active weight set swapped",
		zap.String("old_version", old.Version),
		zap.String("new_version", ws.Version),
	)
	return true
}
