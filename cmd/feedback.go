package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dealhawk/cardmatch/internal/feedback"
	"github.com/dealhawk/cardmatch/internal/model"
)

var (
	feedbackMatchID       string
	feedbackCorrect       bool
	feedbackReason        string
	feedbackCorrectCardID string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record a reviewer verdict on a match",
	Long: `Saves a review and, for incorrect match-related verdicts
(wrong_item, wrong_set, wrong_variant), writes a confusion record so
future matches on the same card number are biased away from the wrong
card.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		review := model.Review{
			MatchID:       feedbackMatchID,
			Correct:       feedbackCorrect,
			Reason:        model.ReviewReason(feedbackReason),
			CorrectCardID: feedbackCorrectCardID,
		}
		if !review.Correct && review.Reason == "" {
			return eris.New("feedback: --reason is required for incorrect verdicts")
		}

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "feedback: init store")
		}
		defer st.Close() //nolint:errcheck

		return feedback.NewRecorder(st).Record(ctx, review)
	},
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackMatchID, "match", "", "match ID being reviewed (required)")
	feedbackCmd.Flags().BoolVar(&feedbackCorrect, "correct", false, "mark the match correct")
	feedbackCmd.Flags().StringVar(&feedbackReason, "reason", "", "incorrect reason: wrong_item, wrong_set, wrong_variant, wrong_condition, wrong_price")
	feedbackCmd.Flags().StringVar(&feedbackCorrectCardID, "correct-card", "", "catalog card that should have matched, if known")
	_ = feedbackCmd.MarkFlagRequired("match")
	rootCmd.AddCommand(feedbackCmd)
}
