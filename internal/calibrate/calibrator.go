// Package calibrate tunes the six signal weights from human-reviewed
// match outcomes. It runs out-of-band of the match path and its only
// externally visible side effect is the atomic weight-set swap.
package calibrate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dealhawk/cardmatch/internal/config"
	"github.com/dealhawk/cardmatch/internal/model"
	"github.com/dealhawk/cardmatch/internal/score"
)

// CorpusStore reads the reviewed-match training corpus.
type CorpusStore interface {
	ListReviewedMatches(ctx context.Context) ([]model.ReviewedMatch, error)
}

// WeightStore persists weight-set versions, append-only.
type WeightStore interface {
	ActiveWeightSet(ctx context.Context) (model.WeightSet, error)
	SaveWeightSet(ctx context.Context, ws model.WeightSet) error
}

// Report is the structured outcome of one calibration run, for audit.
type Report struct {
	Applied        bool                         `json:"applied"`
	Reason         string                       `json:"reason"`
	SampleSize     int                          `json:"sample_size"`
	IncorrectCount int                          `json:"incorrect_count"`
	AccuracyBefore float64                      `json:"accuracy_before"`
	AccuracyAfter  float64                      `json:"accuracy_after"`
	OldWeights     map[model.Signal]float64     `json:"old_weights"`
	NewWeights     map[model.Signal]float64     `json:"new_weights,omitempty"`
	Stats          map[model.Signal]SignalStats `json:"per_signal_stats,omitempty"`
}

// Calibrator proposes and conditionally applies a new weight set.
type Calibrator struct {
	corpus  CorpusStore
	weights WeightStore
	holder  *score.Holder
	cfg     config.CalibrateConfig
}

// New creates a Calibrator.
func New(corpus CorpusStore, weights WeightStore, holder *score.Holder, cfg config.CalibrateConfig) *Calibrator {
	return &Calibrator{corpus: corpus, weights: weights, holder: holder, cfg: cfg}
}

// Run executes one calibration pass. Insufficient data yields an
// unapplied report with a stated reason, never an error; errors are
// reserved for store failures.
func (c *Calibrator) Run(ctx context.Context) (*Report, error) {
	log := zap.L().With(zap.String("job", "calibrate"))

	corpus, err := c.corpus.ListReviewedMatches(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "calibrate: load corpus")
	}

	incorrect := 0
	for _, rm := range corpus {
		if !rm.Correct {
			incorrect++
		}
	}

	current := c.holder.Load()
	report := &Report{
		SampleSize:     len(corpus),
		IncorrectCount: incorrect,
		OldWeights:     current.Weights,
	}

	if len(corpus) < c.cfg.MinReviewed {
		report.Reason = fmt.Sprintf("insufficient reviewed matches: %d < %d", len(corpus), c.cfg.MinReviewed)
		log.Info("calibration skipped", zap.String("reason", report.Reason))
		return report, nil
	}
	if incorrect < c.cfg.MinIncorrect {
		report.Reason = fmt.Sprintf("insufficient incorrect examples: %d < %d", incorrect, c.cfg.MinIncorrect)
		log.Info("calibration skipped", zap.String("reason", report.Reason))
		return report, nil
	}

	stats := computeStats(corpus)
	report.Stats = stats

	proposed := propose(current.Weights, stats)
	report.NewWeights = proposed

	proposedSet := model.WeightSet{Version: "proposed", Weights: proposed}
	report.AccuracyBefore = accuracy(corpus, current, c.cfg.DecisionThreshold)
	report.AccuracyAfter = accuracy(corpus, proposedSet, c.cfg.DecisionThreshold)

	improvement := report.AccuracyAfter - report.AccuracyBefore
	if improvement <= c.cfg.MinImprovement {
		report.Reason = fmt.Sprintf("accuracy gain %.4f does not exceed %.4f", improvement, c.cfg.MinImprovement)
		log.Info("calibration proposal discarded",
			zap.Float64("accuracy_before", report.AccuracyBefore),
			zap.Float64("accuracy_after", report.AccuracyAfter),
		)
		return report, nil
	}

	newSet := model.WeightSet{
		Version:   uuid.NewString(),
		Weights:   proposed,
		CreatedAt: time.Now().UTC(),
		Metadata: &model.WeightMetadata{
			SampleSize:     len(corpus),
			AccuracyBefore: report.AccuracyBefore,
			AccuracyAfter:  report.AccuracyAfter,
			Separations:    separations(stats),
		},
	}

	if err := c.weights.SaveWeightSet(ctx, newSet); err != nil {
		return nil, eris.Wrap(err, "calibrate: persist weight set")
	}
	c.holder.Swap(newSet)

	report.Applied = true
	report.Reason = fmt.Sprintf("accuracy improved %.4f -> %.4f", report.AccuracyBefore, report.AccuracyAfter)
	log.Info("calibration applied",
		zap.String("version", newSet.Version),
		zap.Int("sample_size", len(corpus)),
		zap.Float64("accuracy_before", report.AccuracyBefore),
		zap.Float64("accuracy_after", report.AccuracyAfter),
	)

	return report, nil
}

// accuracy classifies the whole corpus at the decision threshold: a
// reviewed-correct match counts when its composite clears the threshold,
// a reviewed-incorrect match counts when it stays below.
func accuracy(corpus []model.ReviewedMatch, ws model.WeightSet, threshold float64) float64 {
	if len(corpus) == 0 {
		return 0
	}
	if threshold <= 0 {
		threshold = score.DecisionThreshold
	}
	classified := 0
	for _, rm := range corpus {
		composite := score.Composite(rm.Signals, ws)
		if rm.Correct == (composite >= threshold) {
			classified++
		}
	}
	return float64(classified) / float64(len(corpus))
}

func separations(stats map[model.Signal]SignalStats) map[model.Signal]float64 {
	out := make(map[model.Signal]float64, len(stats))
	for sig, s := range stats {
		out[sig] = s.Separation
	}
	return out
}
