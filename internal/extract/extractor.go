package extract

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/dealhawk/cardmatch/internal/junk"
	"github.com/dealhawk/cardmatch/internal/model"
	"github.com/dealhawk/cardmatch/internal/normalize"
)

// fillerWords are dropped from title-derived name and set text.
var fillerWords = map[string]bool{
	"pokemon": true, "card": true, "cards": true, "tcg": true,
	"the": true, "rare": true, "ultra": true, "secret": true,
	"full": true, "art": true, "graded": true, "fresh": true,
	"pull": true, "pack": true,
}

// Extractor produces NormalizedListings from raw marketplace listings.
// Junk classification runs first and is terminal.
type Extractor struct {
	junk   *junk.Classifier
	tables *Tables
}

// New creates an Extractor. classifier may be nil to skip junk screening
// (used by tests exercising extraction alone).
func New(classifier *junk.Classifier, tables *Tables) *Extractor {
	return &Extractor{junk: classifier, tables: tables}
}

// Extract normalizes a raw listing. Structured attributes win over
// title-derived values field by field; the provenance map records which
// source produced each field.
func (e *Extractor) Extract(ctx context.Context, l model.Listing) (*model.NormalizedListing, *model.Rejection) {
	clean := normalize.Clean(l.Title)

	if e.junk != nil {
		if reason, isJunk := e.junk.Classify(ctx, clean, l.SellerID); isJunk {
			zap.L().Debug("extract: junk listing",
				zap.String("listing_id", l.ID),
				zap.String("reason", string(reason)),
			)
			return nil, &model.Rejection{Reason: model.RejectJunk, Junk: reason}
		}
	}

	nl := &model.NormalizedListing{
		ListingID:  l.ID,
		SellerID:   l.SellerID,
		RawTitle:   l.Title,
		CleanTitle: clean,
		Provenance: make(map[string]model.Source),
	}

	titleName, titleSet := e.deriveNameAndSet(clean)

	// Number: structured attribute wins over title parse.
	if num := ParseNumber(normalize.Clean(l.Attribute("card number"))); num != nil {
		nl.Number = num
		nl.Provenance["number"] = model.SourceAspect
	} else if num := ParseNumber(clean); num != nil {
		nl.Number = num
		nl.Provenance["number"] = model.SourceTitle
	}

	// Name.
	if v := firstAttribute(l, "card name", "character", "name"); v != "" {
		nl.Name = normalize.Clean(v)
		nl.Provenance["name"] = model.SourceAspect
	} else if titleName != "" {
		nl.Name = titleName
		nl.Provenance["name"] = model.SourceTitle
	}

	// Set / expansion.
	if v := firstAttribute(l, "set", "expansion"); v != "" {
		nl.SetName = normalize.Clean(v)
		nl.Provenance["set"] = model.SourceAspect
	} else if titleSet != "" {
		nl.SetName = titleSet
		nl.Provenance["set"] = model.SourceTitle
	}

	// Variant: a structured finish aspect wins over the title keyword.
	if v := firstAttribute(l, "finish", "features"); v != "" {
		if variant := e.DetectVariant(normalize.Clean(v)); variant != "" {
			nl.Variant = variant
			nl.Provenance["variant"] = model.SourceAspect
		}
	}
	if nl.Variant == "" {
		if variant := e.DetectVariant(clean); variant != "" {
			nl.Variant = variant
			nl.Provenance["variant"] = model.SourceTitle
		}
	}

	nl.Condition = e.ResolveCondition(l, clean)
	nl.Provenance["condition"] = nl.Condition.Source

	return nl, nil
}

// deriveNameAndSet splits the cleaned title around the collector number:
// tokens before it form the card name, tokens after it the set hint, each
// stripped of variant/condition keywords and filler.
func (e *Extractor) deriveNameAndSet(cleanTitle string) (name, set string) {
	before, after := cleanTitle, ""
	if start, end, ok := NumberSpan(cleanTitle); ok {
		before, after = cleanTitle[:start], cleanTitle[end:]
	}
	return e.stripNoise(before), e.stripNoise(after)
}

// stripNoise removes variant aliases, condition keywords, grader names,
// numeric tokens and filler from a title fragment.
func (e *Extractor) stripNoise(fragment string) string {
	padded := " " + strings.TrimSpace(fragment) + " "

	for _, va := range e.tables.Variants {
		padded = strings.ReplaceAll(padded, " "+va.Alias+" ", " ")
	}
	for _, ck := range e.tables.Conditions {
		for _, kw := range ck.Keywords {
			padded = strings.ReplaceAll(padded, " "+kw+" ", " ")
		}
	}
	for grader := range graderByName {
		padded = strings.ReplaceAll(padded, " "+grader+" ", " ")
	}

	var kept []string
	for _, tok := range normalize.Tokens(padded) {
		if fillerWords[tok] || isNumeric(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

func isNumeric(tok string) bool {
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(tok) > 0
}

func firstAttribute(l model.Listing, names ...string) string {
	for _, n := range names {
		if v := l.Attribute(n); v != "" {
			return v
		}
	}
	return ""
}
