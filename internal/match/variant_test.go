package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealhawk/cardmatch/internal/model"
)

func pricedVariant(id, name string, market float64) model.Variant {
	return model.Variant{
		ID:   id,
		Name: name,
		Prices: map[model.Condition]model.Price{
			model.ConditionNearMint: {Market: market},
		},
	}
}

func TestResolveVariant(t *testing.T) {
	holo := pricedVariant("v-holo", "holofoil", 120)
	reverse := pricedVariant("v-rev", "reverseHolofoil", 45)
	unpriced := model.Variant{ID: "v-normal", Name: "normal"}

	tests := []struct {
		name       string
		card       model.CatalogCard
		detected   string
		wantID     string
		wantScore  float64
		wantMethod model.VariantMethod
		wantOK     bool
	}{
		{
			name:       "single priced variant",
			card:       model.CatalogCard{Variants: []model.Variant{holo, unpriced}},
			detected:   "",
			wantID:     "v-holo",
			wantScore:  0.95,
			wantMethod: model.VariantOnlyPriced,
			wantOK:     true,
		},
		{
			name:       "keyword picks among several",
			card:       model.CatalogCard{Variants: []model.Variant{holo, reverse}},
			detected:   "reverseHolofoil",
			wantID:     "v-rev",
			wantScore:  0.85,
			wantMethod: model.VariantKeyword,
			wantOK:     true,
		},
		{
			name:       "ambiguity defaults to cheapest",
			card:       model.CatalogCard{Variants: []model.Variant{holo, reverse}},
			detected:   "",
			wantID:     "v-rev",
			wantScore:  0.50,
			wantMethod: model.VariantCheapestDefault,
			wantOK:     true,
		},
		{
			name:       "unknown keyword defaults to cheapest",
			card:       model.CatalogCard{Variants: []model.Variant{holo, reverse}},
			detected:   "1stEdition",
			wantID:     "v-rev",
			wantScore:  0.50,
			wantMethod: model.VariantCheapestDefault,
			wantOK:     true,
		},
		{
			name:   "no priced variants",
			card:   model.CatalogCard{Variants: []model.Variant{unpriced}},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, score, method, ok := ResolveVariant(tt.card, tt.detected)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantID, v.ID)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantMethod, method)
		})
	}
}
