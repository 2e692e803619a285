package calibrate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealhawk/cardmatch/internal/model"
)

// corpusWith builds a reviewed corpus where the named signal separates
// correct from incorrect matches and the others do not.
func corpusWith(discriminating model.Signal, nCorrect, nIncorrect int) []model.ReviewedMatch {
	var corpus []model.ReviewedMatch
	for i := 0; i < nCorrect; i++ {
		s := model.Signals{Name: 0.8, Number: 0.8, Denominator: 0.8, Expansion: 0.8, Variant: 0.8, Normalization: 0.8}
		setSignal(&s, discriminating, 0.95)
		corpus = append(corpus, model.ReviewedMatch{Signals: s, Composite: 0.8, Correct: true})
	}
	for i := 0; i < nIncorrect; i++ {
		s := model.Signals{Name: 0.8, Number: 0.8, Denominator: 0.8, Expansion: 0.8, Variant: 0.8, Normalization: 0.8}
		setSignal(&s, discriminating, 0.20)
		corpus = append(corpus, model.ReviewedMatch{Signals: s, Composite: 0.6, Correct: false})
	}
	return corpus
}

func setSignal(s *model.Signals, sig model.Signal, v float64) {
	switch sig {
	case model.SignalName:
		s.Name = v
	case model.SignalNumber:
		s.Number = v
	case model.SignalDenominator:
		s.Denominator = v
	case model.SignalExpansion:
		s.Expansion = v
	case model.SignalVariant:
		s.Variant = v
	case model.SignalNormalization:
		s.Normalization = v
	}
}

func TestComputeStats(t *testing.T) {
	stats := computeStats(corpusWith(model.SignalExpansion, 10, 5))

	exp := stats[model.SignalExpansion]
	assert.InDelta(t, 0.95, exp.MeanCorrect, 1e-9)
	assert.InDelta(t, 0.20, exp.MeanIncorrect, 1e-9)
	assert.InDelta(t, 0.75, exp.Separation, 1e-9)

	// Non-discriminating signals have zero separation.
	assert.InDelta(t, 0, stats[model.SignalName].Separation, 1e-9)
}

func TestPropose_Invariants(t *testing.T) {
	stats := computeStats(corpusWith(model.SignalExpansion, 30, 10))
	proposed := propose(model.DefaultWeights(), stats)
	defaults := model.DefaultWeights()

	var sum float64
	for _, sig := range model.AllSignals() {
		w, ok := proposed[sig]
		require.True(t, ok, "missing weight for %s", sig)

		assert.GreaterOrEqual(t, w, floorWeight, "floor violated for %s", sig)
		assert.LessOrEqual(t, math.Abs(w-defaults[sig]), driftBound+1e-9, "drift bound violated for %s", sig)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "weights must sum to exactly 1.000")
}

func TestPropose_ShiftsTowardDiscriminatingSignal(t *testing.T) {
	stats := computeStats(corpusWith(model.SignalExpansion, 30, 10))
	proposed := propose(model.DefaultWeights(), stats)

	// The signal with the strongest separation gains weight relative to
	// its default.
	assert.Greater(t, proposed[model.SignalExpansion], model.DefaultWeights()[model.SignalExpansion])
}

func TestPropose_BlendsTowardDefaults(t *testing.T) {
	// Start from weights drifted to the bound; with a flat corpus (no
	// separation anywhere) the proposal mean-reverts toward the defaults.
	drifted := model.DefaultWeights()
	drifted[model.SignalName] += driftBound
	drifted[model.SignalDenominator] -= driftBound

	flat := []model.ReviewedMatch{
		{Signals: model.Signals{Name: 0.8, Number: 0.8, Denominator: 0.8, Expansion: 0.8, Variant: 0.8, Normalization: 0.8}, Correct: true},
		{Signals: model.Signals{Name: 0.8, Number: 0.8, Denominator: 0.8, Expansion: 0.8, Variant: 0.8, Normalization: 0.8}, Correct: false},
	}
	proposed := propose(drifted, computeStats(flat))

	defaults := model.DefaultWeights()
	assert.Less(t, proposed[model.SignalName], drifted[model.SignalName])
	assert.Greater(t, proposed[model.SignalName], defaults[model.SignalName])
	assert.Greater(t, proposed[model.SignalDenominator], drifted[model.SignalDenominator])
}

func TestRenormalize_RemainderOnLargest(t *testing.T) {
	weights := map[model.Signal]float64{
		model.SignalName:          0.3001,
		model.SignalDenominator:   0.2502,
		model.SignalNumber:        0.1501,
		model.SignalExpansion:     0.0999,
		model.SignalVariant:       0.0999,
		model.SignalNormalization: 0.0998,
	}
	renormalize(weights)

	var sum float64
	for _, w := range weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}
