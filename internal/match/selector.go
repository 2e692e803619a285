package match

import (
	"context"

	"github.com/dealhawk/cardmatch/internal/confusion"
	"github.com/dealhawk/cardmatch/internal/model"
)

// Selection blend: name dominates, expansion breaks ties.
const (
	selectNameWeight      = 0.7
	selectExpansionWeight = 0.3
)

// Biaser looks up the confusion-memory verdict for a candidate. Injected
// so the selector is testable against an empty or canned table.
type Biaser interface {
	Lookup(ctx context.Context, numberKey, cardID string) confusion.Bias
}

// Candidate is a scored retrieval candidate.
type Candidate struct {
	Card           model.CatalogCard
	NameScore      float64
	ExpansionScore float64
	SelectionScore float64
}

// selectCandidate scores every candidate and picks the best by the
// blended selection score, after applying the name hard gate and the
// confusion bias. Returns nil when the gate excluded everything.
func selectCandidate(ctx context.Context, nl *model.NormalizedListing, cards []model.CatalogCard, gate float64, biaser Biaser) *Candidate {
	nameExtracted := nl.Name != ""

	// An unnamed listing matching several same-numbered cards across
	// different sets is genuinely risky; penalize, don't guess.
	noNameDefault := NoNameNeutral
	if len(cards) > 1 {
		noNameDefault = NoNameAmbiguous
	}

	numberKey := nl.Number.Key()

	var best *Candidate
	for _, card := range cards {
		var nameScore float64
		if nameExtracted {
			nameScore = ValidateName(nl.Name, card.Name)
			if nameScore < gate {
				continue
			}
		} else {
			nameScore = noNameDefault
		}

		expansionScore := ValidateExpansion(nl.SetName, card.SetName, card.SetCode)
		selection := selectNameWeight*nameScore + selectExpansionWeight*expansionScore

		if biaser != nil {
			selection += biaser.Lookup(ctx, numberKey, card.ID).Adjustment()
		}

		c := Candidate{
			Card:           card,
			NameScore:      nameScore,
			ExpansionScore: expansionScore,
			SelectionScore: selection,
		}
		if best == nil || c.SelectionScore > best.SelectionScore {
			best = &c
		}
	}

	return best
}
