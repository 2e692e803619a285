package model

import "time"

// Strategy names the catalog retrieval strategy that produced a candidate
// set, kept on the result for observability.
type Strategy string

// Retrieval strategies, most to least specific.
const (
	StrategyNumberDenominator Strategy = "number_denominator"
	StrategyNumberPrefix      Strategy = "number_prefix"
	StrategyNumberOnly        Strategy = "number_only"
	StrategyFuzzyName         Strategy = "fuzzy_name"
)

// VariantMethod names how the priced variant was chosen.
type VariantMethod string

// Variant resolution methods.
const (
	VariantOnlyPriced      VariantMethod = "only_priced"
	VariantKeyword         VariantMethod = "keyword"
	VariantCheapestDefault VariantMethod = "cheapest_default"
)

// MatchResult is the pipeline's output for one listing: the resolved
// catalog card and variant with the full signal breakdown. Created fresh
// per listing and never mutated.
type MatchResult struct {
	MatchID       string        `json:"match_id"`
	ListingID     string        `json:"listing_id"`
	CardID        string        `json:"card_id"`
	VariantID     string        `json:"variant_id"`
	NumberKey     string        `json:"number_key,omitempty"`
	Signals       Signals       `json:"signals"`
	Composite     float64       `json:"composite"`
	Strategy      Strategy      `json:"strategy"`
	VariantMethod VariantMethod `json:"variant_method"`
	CreatedAt     time.Time     `json:"created_at"`
}

// RejectReason classifies why no match was produced. Rejections are
// expected outcomes, not errors.
type RejectReason string

// Rejection reasons.
const (
	RejectJunk            RejectReason = "junk"
	RejectNoCandidates    RejectReason = "no_candidates"
	RejectNameGate        RejectReason = "name_gate"
	RejectNoPricedVariant RejectReason = "no_priced_variant"
	RejectLowConfidence   RejectReason = "low_confidence"
)

// JunkReason classifies why a listing was rejected as not a single
// genuine card.
type JunkReason string

// Junk classification reasons.
const (
	JunkBulkLot       JunkReason = "bulk_lot"
	JunkReproduction  JunkReason = "reproduction"
	JunkWrongProduct  JunkReason = "wrong_product"
	JunkNonEnglish    JunkReason = "non_english"
	JunkLearnedTokens JunkReason = "learned_tokens"
)

// Rejection is the typed "no match" outcome.
type Rejection struct {
	Reason RejectReason `json:"reason"`
	Junk   JunkReason   `json:"junk,omitempty"`
	Detail string       `json:"detail,omitempty"`
}
