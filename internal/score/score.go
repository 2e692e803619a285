// Package score combines the six per-dimension match signals into one
// composite confidence via a weighted geometric mean. The geometric mean
// is deliberate: a single near-zero signal must suppress the composite,
// because a wrong field almost always means a wrong card.
package score

import (
	"math"
	"strconv"

	"github.com/dealhawk/cardmatch/internal/model"
)

// Scoring constants.
const (
	// ClampMin keeps ln() finite; a zero signal still crushes the
	// composite without producing -Inf.
	ClampMin = 0.01

	// AbsoluteMinGate is the floor below which no match is ever returned.
	// Source of the matcher.min_confidence config default.
	AbsoluteMinGate = 0.45

	// DecisionThreshold is the deal-creation cutoff the calibrator
	// evaluates weight sets against. Not enforced on the match path;
	// source of the calibrate.decision_threshold config default.
	DecisionThreshold = 0.65
)

// Composite computes the weighted geometric mean of the six signals,
// rounded to 3 decimal places.
func Composite(s model.Signals, w model.WeightSet) float64 {
	var sumW, sumLn float64
	for _, sig := range model.AllSignals() {
		weight := w.Weights[sig]
		if weight <= 0 {
			continue
		}
		v := clamp(s.Get(sig))
		sumW += weight
		sumLn += weight * math.Log(v)
	}
	if sumW == 0 {
		return 0
	}
	return math.Round(math.Exp(sumLn/sumW)*1000) / 1000
}

func clamp(v float64) float64 {
	if v < ClampMin {
		return ClampMin
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

// NumberSignal is 1.0 when any collector number was extracted, else 0.
func NumberSignal(nl *model.NormalizedListing) float64 {
	if nl.Number != nil && nl.Number.Value != "" {
		return 1.0
	}
	return 0.0
}

// DenominatorSignal compares an extracted denominator with the candidate
// set's printed total: exact match 1.0, mismatch 0.20, absent 0.50.
func DenominatorSignal(nl *model.NormalizedListing, card model.CatalogCard) float64 {
	if nl.Number == nil || nl.Number.Denominator == "" {
		return 0.50
	}
	if card.PrintedTotal > 0 && nl.Number.Denominator == strconv.Itoa(card.PrintedTotal) {
		return 1.0
	}
	return 0.20
}

// NormalizationSignal reflects how many distinct fields extraction
// recovered: min(1.0, 0.25 + 0.25 * count of non-null fields).
func NormalizationSignal(nl *model.NormalizedListing) float64 {
	count := 0
	if nl.Name != "" {
		count++
	}
	if nl.Number != nil && nl.Number.Value != "" {
		count++
	}
	if nl.SetName != "" {
		count++
	}
	if nl.Variant != "" {
		count++
	}
	return math.Min(1.0, 0.25+0.25*float64(count))
}
