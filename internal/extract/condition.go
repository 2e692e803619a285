package extract

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dealhawk/cardmatch/internal/model"
	"github.com/dealhawk/cardmatch/internal/normalize"
)

// Condition descriptor type IDs as delivered by the marketplace. The same
// descriptor may arrive with only a TypeName instead; both map here.
const (
	descTypeGrader    = 27501
	descTypeGrade     = 27502
	descTypeCert      = 27503
	descTypeCondition = 40001
)

var descTypeNames = map[string]int{
	"professional grader":  descTypeGrader,
	"grade":                descTypeGrade,
	"certification number": descTypeCert,
	"card condition":       descTypeCondition,
}

var graderByValueID = map[int]model.GradingCompany{
	275010: model.GradingPSA,
	275013: model.GradingBGS,
	275015: model.GradingCGC,
	275016: model.GradingSGC,
	275029: model.GradingACE,
}

var graderByName = map[string]model.GradingCompany{
	"psa":         model.GradingPSA,
	"bgs":         model.GradingBGS,
	"beckett":     model.GradingBGS,
	"cgc":         model.GradingCGC,
	"sgc":         model.GradingSGC,
	"ace":         model.GradingACE,
	"ace grading": model.GradingACE,
}

var conditionByValueID = map[int]model.Condition{
	400010: model.ConditionNearMint,
	400011: model.ConditionLightlyPlayed,
	400012: model.ConditionModeratelyPlayed,
	400013: model.ConditionDamaged,
}

// titleGradeRe matches grading-company+grade patterns in a cleaned title,
// e.g. "psa 10", "bgs 9.5". Cleaning turns the half-grade dot into a
// space, so "9 5" is a valid grade spelling here.
var titleGradeRe = regexp.MustCompile(`(?:^| )(psa|bgs|cgc|sgc|ace) ?(10|[1-9](?: 5)?)(?:$| )`)

// conditionResolver is one stage of the priority chain: it returns nil
// when its source has nothing to say about the listing's condition.
type conditionResolver struct {
	name string
	fn   func(e *Extractor, l model.Listing, cleanTitle string) *model.ConditionInfo
}

// conditionChain is consulted in strict priority order; each stage runs
// only if every stage before it produced nothing.
var conditionChain = []conditionResolver{
	{"descriptors", (*Extractor).conditionFromDescriptors},
	{"aspect", (*Extractor).conditionFromAspect},
	{"marketplace", (*Extractor).conditionFromMarketplace},
	{"title", (*Extractor).conditionFromTitle},
}

// ResolveCondition runs the priority chain and falls back to the
// pessimistic default bucket when no stage resolves anything.
func (e *Extractor) ResolveCondition(l model.Listing, cleanTitle string) model.ConditionInfo {
	for _, stage := range conditionChain {
		if ci := stage.fn(e, l, cleanTitle); ci != nil {
			return *ci
		}
	}
	return model.ConditionInfo{Code: model.DefaultCondition, Source: model.SourceDefault}
}

// conditionFromDescriptors resolves structured condition descriptors.
// A grading-company descriptor marks the listing graded and pins the raw
// bucket to near mint regardless of the grade value. Unmapped codes are
// logged and skipped rather than aborting extraction.
func (e *Extractor) conditionFromDescriptors(l model.Listing, _ string) *model.ConditionInfo {
	if len(l.Descriptors) == 0 {
		return nil
	}

	var ci *model.ConditionInfo
	for _, d := range l.Descriptors {
		switch descriptorType(d) {
		case descTypeGrader:
			company, ok := graderByValueID[d.ValueID]
			if !ok {
				company, ok = graderByName[strings.ToLower(strings.TrimSpace(d.ValueText))]
			}
			if !ok {
				zap.L().Warn("extract: unmapped grading company descriptor",
					zap.String("listing_id", l.ID),
					zap.Int("value_id", d.ValueID),
					zap.String("value_text", d.ValueText),
				)
				continue
			}
			if ci == nil {
				ci = &model.ConditionInfo{}
			}
			ci.Graded = true
			ci.Company = company
			ci.Code = model.ConditionNearMint

		case descTypeGrade:
			if g, err := strconv.ParseFloat(strings.TrimSpace(d.ValueText), 64); err == nil {
				if ci == nil {
					ci = &model.ConditionInfo{}
				}
				ci.Grade = g
			}

		case descTypeCert:
			if d.ValueText != "" {
				if ci == nil {
					ci = &model.ConditionInfo{}
				}
				ci.CertNumber = strings.TrimSpace(d.ValueText)
			}

		case descTypeCondition:
			code, ok := conditionByValueID[d.ValueID]
			if !ok {
				code, ok = e.parseConditionText(d.ValueText)
			}
			if !ok {
				zap.L().Warn("extract: unmapped condition descriptor",
					zap.String("listing_id", l.ID),
					zap.Int("value_id", d.ValueID),
					zap.String("value_text", d.ValueText),
				)
				continue
			}
			if ci == nil {
				ci = &model.ConditionInfo{}
			}
			if !ci.Graded {
				ci.Code = code
			}
		}
	}

	// Grade/cert alone without a grader or condition resolves nothing.
	if ci != nil && ci.Code == "" {
		return nil
	}
	if ci != nil {
		ci.Source = model.SourceDescriptor
	}
	return ci
}

func descriptorType(d model.ConditionDescriptor) int {
	if d.TypeID != 0 {
		return d.TypeID
	}
	return descTypeNames[strings.ToLower(strings.TrimSpace(d.TypeName))]
}

// conditionFromAspect resolves a structured free-text aspect naming the
// raw condition.
func (e *Extractor) conditionFromAspect(l model.Listing, _ string) *model.ConditionInfo {
	for _, name := range []string{"card condition", "condition"} {
		if v := l.Attribute(name); v != "" {
			if code, ok := e.parseConditionText(v); ok {
				return &model.ConditionInfo{Code: code, Source: model.SourceAspect}
			}
		}
	}
	return nil
}

// conditionFromMarketplace resolves the top-level marketplace condition
// string.
func (e *Extractor) conditionFromMarketplace(l model.Listing, _ string) *model.ConditionInfo {
	if l.Condition == "" {
		return nil
	}
	if code, ok := e.parseConditionText(l.Condition); ok {
		return &model.ConditionInfo{Code: code, Source: model.SourceMarketplace}
	}
	return nil
}

// conditionFromTitle scans the title for grading-company+grade patterns,
// then for raw-condition keywords.
func (e *Extractor) conditionFromTitle(_ model.Listing, cleanTitle string) *model.ConditionInfo {
	if m := titleGradeRe.FindStringSubmatch(cleanTitle); m != nil {
		grade, _ := strconv.ParseFloat(strings.Replace(m[2], " ", ".", 1), 64)
		return &model.ConditionInfo{
			Code:    model.ConditionNearMint,
			Source:  model.SourceTitle,
			Graded:  true,
			Company: graderByName[m[1]],
			Grade:   grade,
		}
	}

	if code, ok := e.parseConditionText(cleanTitle); ok {
		return &model.ConditionInfo{Code: code, Source: model.SourceTitle}
	}
	return nil
}

// parseConditionText maps free condition text to a code using the keyword
// table, on word boundaries. Table order resolves overlaps ("lightly
// played" before the bare "played").
func (e *Extractor) parseConditionText(text string) (model.Condition, bool) {
	clean := normalize.Clean(text)
	if clean == "" {
		return "", false
	}
	padded := " " + clean + " "
	for _, ck := range e.tables.Conditions {
		for _, kw := range ck.Keywords {
			if strings.Contains(padded, " "+kw+" ") {
				return ck.Code, true
			}
		}
	}
	return "", false
}
