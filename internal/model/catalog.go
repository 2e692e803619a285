package model

// Price holds the low and market price points for one condition bucket.
type Price struct {
	Low    float64 `json:"low,omitempty"`
	Market float64 `json:"market,omitempty"`
}

// Variant is a priced sub-version of a catalog card (a particular finish,
// e.g. holofoil vs reverse holofoil). Only variants with at least one
// non-zero market price are matchable.
type Variant struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Prices       map[Condition]Price `json:"prices,omitempty"`
	GradedPrices map[string]Price    `json:"graded_prices,omitempty"`
}

// Priced reports whether the variant has any non-zero market price.
func (v Variant) Priced() bool {
	for _, p := range v.Prices {
		if p.Market > 0 {
			return true
		}
	}
	for _, p := range v.GradedPrices {
		if p.Market > 0 {
			return true
		}
	}
	return false
}

// ReferenceMarket returns the variant's representative market price: the
// near-mint market when present, otherwise the lowest non-zero market
// across conditions. Used to pick the cheapest variant on ambiguity.
func (v Variant) ReferenceMarket() float64 {
	if p, ok := v.Prices[ConditionNearMint]; ok && p.Market > 0 {
		return p.Market
	}
	lowest := 0.0
	for _, p := range v.Prices {
		if p.Market > 0 && (lowest == 0 || p.Market < lowest) {
			lowest = p.Market
		}
	}
	if lowest == 0 {
		for _, p := range v.GradedPrices {
			if p.Market > 0 && (lowest == 0 || p.Market < lowest) {
				lowest = p.Market
			}
		}
	}
	return lowest
}

// CatalogCard is a read-only reference-catalog record joined with its
// variant rows.
type CatalogCard struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Number           string    `json:"number"`
	NumberNormalized string    `json:"number_normalized"`
	PrintedTotal     int       `json:"printed_total,omitempty"`
	SetID            string    `json:"set_id"`
	SetName          string    `json:"set_name"`
	SetCode          string    `json:"set_code"`
	Variants         []Variant `json:"variants,omitempty"`
}

// PricedVariants returns the subset of variants with a usable market price.
func (c CatalogCard) PricedVariants() []Variant {
	var out []Variant
	for _, v := range c.Variants {
		if v.Priced() {
			out = append(out, v)
		}
	}
	return out
}
