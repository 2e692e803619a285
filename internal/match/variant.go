package match

import (
	"strings"

	"github.com/dealhawk/cardmatch/internal/model"
)

// Variant resolution confidences.
const (
	variantOnlyPricedScore = 0.95
	variantKeywordScore    = 0.85
	variantDefaultScore    = 0.50
)

// ResolveVariant picks which priced variant of the card the listing is
// for. Ambiguity defaults to the cheapest priced variant: defaulting to
// the most expensive one would overstate profit on a false match.
// ok=false means the card has no priced variant at all.
func ResolveVariant(card model.CatalogCard, detected string) (model.Variant, float64, model.VariantMethod, bool) {
	priced := card.PricedVariants()
	if len(priced) == 0 {
		return model.Variant{}, 0, "", false
	}

	if len(priced) == 1 {
		return priced[0], variantOnlyPricedScore, model.VariantOnlyPriced, true
	}

	if detected != "" {
		for _, v := range priced {
			if strings.EqualFold(v.Name, detected) {
				return v, variantKeywordScore, model.VariantKeyword, true
			}
		}
	}

	cheapest := priced[0]
	for _, v := range priced[1:] {
		if v.ReferenceMarket() < cheapest.ReferenceMarket() {
			cheapest = v
		}
	}
	return cheapest, variantDefaultScore, model.VariantCheapestDefault, true
}
