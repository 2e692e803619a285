package model

import (
	"math"
	"time"
)

// Signal names one of the six confidence dimensions.
type Signal string

// The six confidence signals.
const (
	SignalName          Signal = "name"
	SignalNumber        Signal = "number"
	SignalDenominator   Signal = "denominator"
	SignalExpansion     Signal = "expansion"
	SignalVariant       Signal = "variant"
	SignalNormalization Signal = "normalization"
)

// AllSignals lists the signals in canonical order.
func AllSignals() []Signal {
	return []Signal{
		SignalName, SignalNumber, SignalDenominator,
		SignalExpansion, SignalVariant, SignalNormalization,
	}
}

// Signals holds the six per-dimension scores, each in [0,1]. Computed
// independently and never mutated after creation.
type Signals struct {
	Name          float64 `json:"name"`
	Number        float64 `json:"number"`
	Denominator   float64 `json:"denominator"`
	Expansion     float64 `json:"expansion"`
	Variant       float64 `json:"variant"`
	Normalization float64 `json:"normalization"`
}

// Get returns the score for the named signal.
func (s Signals) Get(sig Signal) float64 {
	switch sig {
	case SignalName:
		return s.Name
	case SignalNumber:
		return s.Number
	case SignalDenominator:
		return s.Denominator
	case SignalExpansion:
		return s.Expansion
	case SignalVariant:
		return s.Variant
	case SignalNormalization:
		return s.Normalization
	}
	return 0
}

// WeightMetadata records why a weight set was created, for audit.
type WeightMetadata struct {
	SampleSize     int                `json:"sample_size,omitempty"`
	AccuracyBefore float64            `json:"accuracy_before,omitempty"`
	AccuracyAfter  float64            `json:"accuracy_after,omitempty"`
	Separations    map[Signal]float64 `json:"separations,omitempty"`
	Note           string             `json:"note,omitempty"`
}

// WeightSet is a versioned, immutable set of six signal weights summing to
// 1.0. Exactly one set is active at a time; it is replaced atomically by
// the calibrator, never edited in place.
type WeightSet struct {
	Version   string             `json:"version"`
	Weights   map[Signal]float64 `json:"weights"`
	CreatedAt time.Time          `json:"created_at"`
	Metadata  *WeightMetadata    `json:"metadata,omitempty"`
}

// DefaultWeights returns the baseline weights. These are also the anchor
// the calibrator's drift bound is measured against.
func DefaultWeights() map[Signal]float64 {
	return map[Signal]float64{
		SignalName:          0.30,
		SignalDenominator:   0.25,
		SignalNumber:        0.15,
		SignalExpansion:     0.10,
		SignalVariant:       0.10,
		SignalNormalization: 0.10,
	}
}

// DefaultWeightSet returns the baseline weight set used when no calibrated
// set has been persisted yet.
func DefaultWeightSet() WeightSet {
	return WeightSet{
		Version:   "default",
		Weights:   DefaultWeights(),
		CreatedAt: time.Time{},
	}
}

// Sum returns the total of all six weights.
func (w WeightSet) Sum() float64 {
	var sum float64
	for _, sig := range AllSignals() {
		sum += w.Weights[sig]
	}
	return sum
}

// Valid reports whether the set carries all six signals, every weight is
// positive, and the weights sum to 1.0 within rounding tolerance.
func (w WeightSet) Valid() bool {
	if len(w.Weights) != len(AllSignals()) {
		return false
	}
	for _, sig := range AllSignals() {
		wt, ok := w.Weights[sig]
		if !ok || wt <= 0 {
			return false
		}
	}
	return math.Abs(w.Sum()-1.0) < 0.001
}
