package calibrate

import (
	"math"

	"github.com/dealhawk/cardmatch/internal/model"
)

// Proposal shape. Weights mean-revert toward the defaults, then shift by
// at most maxAdjust according to how well each signal separates correct
// from incorrect matches. Every weight stays within driftBound of its
// default and above floorWeight, so no signal is ever zeroed out.
const (
	currentBlend = 0.7
	defaultBlend = 0.3
	driftBound   = 0.10
	maxAdjust    = 0.6 * driftBound
	floorWeight  = 0.03
)

// SignalStats summarizes one signal's discrimination over the corpus.
type SignalStats struct {
	MeanCorrect   float64 `json:"mean_correct"`
	MeanIncorrect float64 `json:"mean_incorrect"`
	Separation    float64 `json:"separation"`
}

// computeStats derives per-signal means and separations from the corpus.
func computeStats(corpus []model.ReviewedMatch) map[model.Signal]SignalStats {
	stats := make(map[model.Signal]SignalStats, len(model.AllSignals()))

	var nCorrect, nIncorrect int
	for _, rm := range corpus {
		if rm.Correct {
			nCorrect++
		} else {
			nIncorrect++
		}
	}

	for _, sig := range model.AllSignals() {
		var sumCorrect, sumIncorrect float64
		for _, rm := range corpus {
			if rm.Correct {
				sumCorrect += rm.Signals.Get(sig)
			} else {
				sumIncorrect += rm.Signals.Get(sig)
			}
		}
		s := SignalStats{}
		if nCorrect > 0 {
			s.MeanCorrect = sumCorrect / float64(nCorrect)
		}
		if nIncorrect > 0 {
			s.MeanIncorrect = sumIncorrect / float64(nIncorrect)
		}
		s.Separation = s.MeanCorrect - s.MeanIncorrect
		stats[sig] = s
	}

	return stats
}

// propose builds a new weight map from the current weights and the signal
// stats: blend toward defaults, adjust by normalized separation, clamp to
// the drift bound, floor, and renormalize to exactly 1.000.
func propose(current map[model.Signal]float64, stats map[model.Signal]SignalStats) map[model.Signal]float64 {
	defaults := model.DefaultWeights()

	maxAbsSep := 0.0
	for _, s := range stats {
		if abs := math.Abs(s.Separation); abs > maxAbsSep {
			maxAbsSep = abs
		}
	}

	proposed := make(map[model.Signal]float64, len(defaults))
	for _, sig := range model.AllSignals() {
		def := defaults[sig]
		w := currentBlend*current[sig] + defaultBlend*def

		if maxAbsSep > 0 {
			w += maxAdjust * (stats[sig].Separation / maxAbsSep)
		}

		w = clampTo(w, def-driftBound, def+driftBound)
		if w < floorWeight {
			w = floorWeight
		}
		proposed[sig] = w
	}

	renormalize(proposed)
	return proposed
}

// renormalize scales the weights to sum to 1.0 while respecting each
// signal's drift bound and floor, rounds to 3 decimal places, and puts
// any rounding remainder on the largest weight.
func renormalize(weights map[model.Signal]float64) {
	defaults := model.DefaultWeights()

	// Scaling can push a weight past its bound; re-clamp and rescale the
	// rest until the sum converges.
	for range [3]struct{}{} {
		var sum float64
		for _, w := range weights {
			sum += w
		}
		if sum == 0 {
			break
		}
		for sig, w := range weights {
			def := defaults[sig]
			scaled := clampTo(w/sum, def-driftBound, def+driftBound)
			if scaled < floorWeight {
				scaled = floorWeight
			}
			weights[sig] = scaled
		}
	}

	// Round to 3 decimals; correct the remainder on the largest weight.
	var sum float64
	largest := model.SignalName
	for _, sig := range model.AllSignals() {
		weights[sig] = math.Round(weights[sig]*1000) / 1000
		sum += weights[sig]
		if weights[sig] > weights[largest] {
			largest = sig
		}
	}
	weights[largest] = math.Round((weights[largest]+1.0-sum)*1000) / 1000
}

func clampTo(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
