package model

import "time"

// ReviewReason classifies why a reviewer marked a match incorrect.
type ReviewReason string

// Review reasons. Only the first three are retrieval errors; wrong price
// or condition does not indicate the wrong card was picked.
const (
	ReasonWrongItem      ReviewReason = "wrong_item"
	ReasonWrongSet       ReviewReason = "wrong_set"
	ReasonWrongVariant   ReviewReason = "wrong_variant"
	ReasonWrongCondition ReviewReason = "wrong_condition"
	ReasonWrongPrice     ReviewReason = "wrong_price"
)

// MatchRelated reports whether the reason indicates the matcher picked the
// wrong catalog record, which is what feeds confusion memory.
func (r ReviewReason) MatchRelated() bool {
	switch r {
	case ReasonWrongItem, ReasonWrongSet, ReasonWrongVariant:
		return true
	}
	return false
}

// Review is human feedback on a produced match, written by the dashboard
// collaborator.
type Review struct {
	MatchID       string       `json:"match_id"`
	Correct       bool         `json:"correct"`
	Reason        ReviewReason `json:"reason,omitempty"`
	CorrectCardID string       `json:"correct_card_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ReviewedMatch joins a persisted match with its review outcome; rows of
// this shape form the calibrator's training corpus.
type ReviewedMatch struct {
	MatchID   string  `json:"match_id"`
	ListingID string  `json:"listing_id"`
	Signals   Signals `json:"signals"`
	Composite float64 `json:"composite"`
	Correct   bool    `json:"correct"`
}

// ConfusionRecord is a confirmed wrong match for an item number, written
// when a review is incorrect for a match-related reason. Only the latest
// record per (NumberKey, WrongCardID) pair is authoritative.
type ConfusionRecord struct {
	NumberKey     string       `json:"number_key"`
	WrongCardID   string       `json:"wrong_card_id"`
	CorrectCardID string       `json:"correct_card_id,omitempty"`
	Reason        ReviewReason `json:"reason"`
	CreatedAt     time.Time    `json:"created_at"`
}
