package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealhawk/cardmatch/internal/model"
	"github.com/dealhawk/cardmatch/internal/normalize"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	tables, err := LoadTables()
	require.NoError(t, err)
	return New(nil, tables)
}

func TestResolveCondition_Descriptors(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name        string
		listing     model.Listing
		wantCode    model.Condition
		wantSource  model.Source
		wantGraded  bool
		wantCompany model.GradingCompany
		wantGrade   float64
		wantCert    string
	}{
		{
			name: "grader by value id pins near mint",
			listing: model.Listing{
				Descriptors: []model.ConditionDescriptor{
					{TypeID: 27501, ValueID: 275010},
					{TypeID: 27502, ValueText: "10"},
					{TypeID: 27503, ValueText: "87654321"},
				},
			},
			wantCode:    model.ConditionNearMint,
			wantSource:  model.SourceDescriptor,
			wantGraded:  true,
			wantCompany: model.GradingPSA,
			wantGrade:   10,
			wantCert:    "87654321",
		},
		{
			name: "grader by text name",
			listing: model.Listing{
				Descriptors: []model.ConditionDescriptor{
					{TypeName: "Professional Grader", ValueText: "Beckett"},
				},
			},
			wantCode:    model.ConditionNearMint,
			wantSource:  model.SourceDescriptor,
			wantGraded:  true,
			wantCompany: model.GradingBGS,
		},
		{
			name: "raw condition by value id",
			listing: model.Listing{
				Descriptors: []model.ConditionDescriptor{
					{TypeID: 40001, ValueID: 400011},
				},
			},
			wantCode:   model.ConditionLightlyPlayed,
			wantSource: model.SourceDescriptor,
		},
		{
			name: "raw condition by text",
			listing: model.Listing{
				Descriptors: []model.ConditionDescriptor{
					{TypeID: 40001, ValueText: "Moderately Played"},
				},
			},
			wantCode:   model.ConditionModeratelyPlayed,
			wantSource: model.SourceDescriptor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ci := e.ResolveCondition(tt.listing, "")
			assert.Equal(t, tt.wantCode, ci.Code)
			assert.Equal(t, tt.wantSource, ci.Source)
			assert.Equal(t, tt.wantGraded, ci.Graded)
			assert.Equal(t, tt.wantCompany, ci.Company)
			assert.Equal(t, tt.wantGrade, ci.Grade)
			assert.Equal(t, tt.wantCert, ci.CertNumber)
		})
	}
}

func TestResolveCondition_GradeAloneResolvesNothing(t *testing.T) {
	e := newTestExtractor(t)

	// Cert and grade descriptors without a grader or condition fall
	// through to the next stage.
	ci := e.ResolveCondition(model.Listing{
		Condition: "Lightly Played",
		Descriptors: []model.ConditionDescriptor{
			{TypeID: 27502, ValueText: "9.5"},
			{TypeID: 27503, ValueText: "12345"},
		},
	}, "")
	assert.Equal(t, model.ConditionLightlyPlayed, ci.Code)
	assert.Equal(t, model.SourceMarketplace, ci.Source)
}

func TestResolveCondition_PriorityChain(t *testing.T) {
	e := newTestExtractor(t)

	// Aspect outranks marketplace and title.
	ci := e.ResolveCondition(model.Listing{
		Condition:  "Damaged",
		Attributes: []model.Attribute{{Name: "Card Condition", Value: "Near Mint"}},
	}, "heavily played charizard")
	assert.Equal(t, model.ConditionNearMint, ci.Code)
	assert.Equal(t, model.SourceAspect, ci.Source)

	// Marketplace outranks title.
	ci = e.ResolveCondition(model.Listing{Condition: "Damaged"}, "near mint charizard")
	assert.Equal(t, model.ConditionDamaged, ci.Code)
	assert.Equal(t, model.SourceMarketplace, ci.Source)
}

func TestResolveCondition_Title(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name       string
		title      string
		wantCode   model.Condition
		wantGraded bool
		wantGrade  float64
	}{
		{
			name:       "psa grade",
			title:      normalize.Clean("Charizard PSA 10 Gem Mint"),
			wantCode:   model.ConditionNearMint,
			wantGraded: true,
			wantGrade:  10,
		},
		{
			name:       "bgs half grade",
			title:      normalize.Clean("Charizard BGS 9.5"),
			wantCode:   model.ConditionNearMint,
			wantGraded: true,
			wantGrade:  9.5,
		},
		{
			name:     "lightly played keyword",
			title:    "charizard lightly played",
			wantCode: model.ConditionLightlyPlayed,
		},
		{
			name:     "bare played maps to heavy",
			title:    "charizard played",
			wantCode: model.ConditionHeavilyPlayed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ci := e.ResolveCondition(model.Listing{}, tt.title)
			assert.Equal(t, tt.wantCode, ci.Code)
			assert.Equal(t, model.SourceTitle, ci.Source)
			assert.Equal(t, tt.wantGraded, ci.Graded)
			assert.Equal(t, tt.wantGrade, ci.Grade)
		})
	}
}

func TestResolveCondition_DefaultsPessimistic(t *testing.T) {
	e := newTestExtractor(t)

	ci := e.ResolveCondition(model.Listing{}, "charizard ex 199/165")
	assert.Equal(t, model.ConditionHeavilyPlayed, ci.Code)
	assert.Equal(t, model.SourceDefault, ci.Source)
}
