// Package model defines the shared data types for the listing-matching
// pipeline: raw and normalized listings, catalog reference data, confidence
// signals and weights, match results, and review feedback.
package model

import "strings"

// Attribute is a structured name/value pair supplied by the seller
// alongside the free-text title (item specifics).
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ConditionDescriptor is a structured condition hint from the marketplace.
// Descriptors arrive as numeric IDs, free-text names, or both; either
// representation must resolve to the same internal codes.
type ConditionDescriptor struct {
	TypeID    int    `json:"type_id,omitempty"`
	TypeName  string `json:"type_name,omitempty"`
	ValueID   int    `json:"value_id,omitempty"`
	ValueText string `json:"value_text,omitempty"`
}

// Listing is a raw marketplace listing as delivered by the ingestion
// collaborator. The matcher never mutates it.
type Listing struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	SellerID    string                `json:"seller_id,omitempty"`
	Condition   string                `json:"condition,omitempty"`
	Attributes  []Attribute           `json:"attributes,omitempty"`
	Descriptors []ConditionDescriptor `json:"descriptors,omitempty"`
}

// Attribute returns the value of the named structured attribute,
// case-insensitive on the name, or "" when absent.
func (l Listing) Attribute(name string) string {
	for _, a := range l.Attributes {
		if strings.EqualFold(a.Name, name) {
			return a.Value
		}
	}
	return ""
}

// Source identifies which input produced an extracted field. Structured
// sources always outrank title-derived values during merging.
type Source string

// Extraction sources, strongest first.
const (
	SourceDescriptor  Source = "descriptor"
	SourceAspect      Source = "aspect"
	SourceMarketplace Source = "marketplace"
	SourceTitle       Source = "title"
	SourceDefault     Source = "default"
)

// CardNumber is an extracted collector number. Value has leading zeros
// stripped; Prefix holds an alphanumeric promo prefix (e.g. "SV", "SWSH");
// Denominator is the set's printed total when the title carried one.
type CardNumber struct {
	Value       string `json:"value"`
	Prefix      string `json:"prefix,omitempty"`
	Denominator string `json:"denominator,omitempty"`
}

// Key returns the normalized item-number key used by confusion memory:
// the promo prefix (lowercased) joined with the zero-stripped value.
func (n *CardNumber) Key() string {
	if n == nil || n.Value == "" {
		return ""
	}
	if n.Prefix != "" {
		return strings.ToLower(n.Prefix) + n.Value
	}
	return n.Value
}

// NormalizedListing is the immutable output of signal extraction, consumed
// only by the matcher. Provenance records which source won each field.
type NormalizedListing struct {
	ListingID  string            `json:"listing_id"`
	SellerID   string            `json:"seller_id,omitempty"`
	RawTitle   string            `json:"raw_title"`
	CleanTitle string            `json:"clean_title"`
	Name       string            `json:"name,omitempty"`
	Number     *CardNumber       `json:"number,omitempty"`
	SetName    string            `json:"set_name,omitempty"`
	Variant    string            `json:"variant,omitempty"`
	Condition  ConditionInfo     `json:"condition"`
	Provenance map[string]Source `json:"provenance"`
}
