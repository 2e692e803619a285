package model

// Condition is a raw-card condition bucket, best to worst.
type Condition string

// Condition buckets. DefaultCondition is deliberately pessimistic:
// an unstated condition is assumed heavily played, never mint.
const (
	ConditionNearMint         Condition = "NM"
	ConditionLightlyPlayed    Condition = "LP"
	ConditionModeratelyPlayed Condition = "MP"
	ConditionHeavilyPlayed    Condition = "HP"
	ConditionDamaged          Condition = "DMG"

	DefaultCondition = ConditionHeavilyPlayed
)

// ConditionOrder lists conditions best-first for rank comparisons.
var ConditionOrder = []Condition{
	ConditionNearMint,
	ConditionLightlyPlayed,
	ConditionModeratelyPlayed,
	ConditionHeavilyPlayed,
	ConditionDamaged,
}

// GradingCompany is a third-party grading service.
type GradingCompany string

// Recognized grading companies.
const (
	GradingPSA GradingCompany = "PSA"
	GradingBGS GradingCompany = "BGS"
	GradingCGC GradingCompany = "CGC"
	GradingSGC GradingCompany = "SGC"
	GradingACE GradingCompany = "ACE"
)

// ConditionInfo is the resolved condition of a listing with provenance.
// A graded listing always carries the near-mint raw bucket regardless of
// its numeric grade; the grade itself is priced separately downstream.
type ConditionInfo struct {
	Code       Condition      `json:"code"`
	Source     Source         `json:"source"`
	Graded     bool           `json:"graded"`
	Company    GradingCompany `json:"company,omitempty"`
	Grade      float64        `json:"grade,omitempty"`
	CertNumber string         `json:"cert_number,omitempty"`
}
