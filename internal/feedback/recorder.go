// Package feedback turns reviewer verdicts into persisted reviews and,
// for match-related mistakes, confusion records the matcher learns from.
package feedback

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dealhawk/cardmatch/internal/model"
)

// Store is the persistence surface the recorder needs.
type Store interface {
	SaveReview(ctx context.Context, review model.Review) error
	GetMatchResult(ctx context.Context, matchID string) (*model.MatchResult, error)
	SaveConfusionRecord(ctx context.Context, rec model.ConfusionRecord) error
}

// Recorder persists reviews and derives confusion records from them.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record saves the review. When the review marks a match incorrect for a
// match-related reason (wrong item, set or variant) and the match carried
// a number key, it also writes a confusion record so future matches on
// that number are biased away from the wrong card. Price and condition
// complaints never feed confusion memory.
func (r *Recorder) Record(ctx context.Context, review model.Review) error {
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	if err := r.store.SaveReview(ctx, review); err != nil {
		return eris.Wrap(err, "feedback: save review")
	}

	if review.Correct || !review.Reason.MatchRelated() {
		return nil
	}

	mr, err := r.store.GetMatchResult(ctx, review.MatchID)
	if err != nil {
		return eris.Wrapf(err, "feedback: load match %s", review.MatchID)
	}
	if mr.NumberKey == "" {
		// Fuzzy-name matches have no number key to learn against.
		zap.L().Debug("feedback: no number key, skipping confusion record",
			zap.String("match_id", review.MatchID),
		)
		return nil
	}

	rec := model.ConfusionRecord{
		NumberKey:     mr.NumberKey,
		WrongCardID:   mr.CardID,
		CorrectCardID: review.CorrectCardID,
		Reason:        review.Reason,
		CreatedAt:     review.CreatedAt,
	}
	if err := r.store.SaveConfusionRecord(ctx, rec); err != nil {
		return eris.Wrap(err, "feedback: save confusion record")
	}

	zap.L().Info("feedback: recorded confusion",
		zap.String("number_key", rec.NumberKey),
		zap.String("wrong_card_id", rec.WrongCardID),
		zap.String("correct_card_id", rec.CorrectCardID),
		zap.String("reason", string(rec.Reason)),
	)
	return nil
}
