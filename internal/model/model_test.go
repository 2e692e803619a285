package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightSetValid(t *testing.T) {
	assert.True(t, DefaultWeightSet().Valid())

	missing := WeightSet{Weights: map[Signal]float64{SignalName: 1.0}}
	assert.False(t, missing.Valid())

	zeroed := DefaultWeightSet()
	zeroed.Weights[SignalVariant] = 0
	assert.False(t, zeroed.Valid())

	offSum := DefaultWeightSet()
	offSum.Weights[SignalName] = 0.35
	assert.False(t, offSum.Valid())
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, DefaultWeightSet().Sum(), 0.001)
}

func TestVariantPriced(t *testing.T) {
	assert.False(t, Variant{}.Priced())
	assert.False(t, Variant{Prices: map[Condition]Price{ConditionNearMint: {Low: 5}}}.Priced())
	assert.True(t, Variant{Prices: map[Condition]Price{ConditionLightlyPlayed: {Market: 3}}}.Priced())
	assert.True(t, Variant{GradedPrices: map[string]Price{"PSA 10": {Market: 400}}}.Priced())
}

func TestVariantReferenceMarket(t *testing.T) {
	// Near-mint market wins when present.
	v := Variant{Prices: map[Condition]Price{
		ConditionNearMint:      {Market: 100},
		ConditionLightlyPlayed: {Market: 80},
	}}
	assert.Equal(t, 100.0, v.ReferenceMarket())

	// Otherwise the lowest non-zero market across conditions.
	v = Variant{Prices: map[Condition]Price{
		ConditionLightlyPlayed:    {Market: 80},
		ConditionModeratelyPlayed: {Market: 55},
		ConditionDamaged:          {},
	}}
	assert.Equal(t, 55.0, v.ReferenceMarket())

	// Graded prices back-stop an unpriced raw ladder.
	v = Variant{GradedPrices: map[string]Price{"PSA 9": {Market: 140}}}
	assert.Equal(t, 140.0, v.ReferenceMarket())
}

func TestPricedVariants(t *testing.T) {
	card := CatalogCard{Variants: []Variant{
		{ID: "a", Prices: map[Condition]Price{ConditionNearMint: {Market: 10}}},
		{ID: "b"},
	}}
	priced := card.PricedVariants()
	assert.Len(t, priced, 1)
	assert.Equal(t, "a", priced[0].ID)
}

func TestListingAttribute(t *testing.T) {
	l := Listing{Attributes: []Attribute{{Name: "Card Name", Value: "Pikachu"}}}
	assert.Equal(t, "Pikachu", l.Attribute("card name"))
	assert.Equal(t, "Pikachu", l.Attribute("CARD NAME"))
	assert.Empty(t, l.Attribute("set"))
}

func TestReviewReasonMatchRelated(t *testing.T) {
	assert.True(t, ReasonWrongItem.MatchRelated())
	assert.True(t, ReasonWrongSet.MatchRelated())
	assert.True(t, ReasonWrongVariant.MatchRelated())
	assert.False(t, ReasonWrongCondition.MatchRelated())
	assert.False(t, ReasonWrongPrice.MatchRelated())
}
