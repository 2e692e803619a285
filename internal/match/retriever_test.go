package match

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealhawk/cardmatch/internal/config"
	"github.com/dealhawk/cardmatch/internal/model"
)

type fakeCatalog struct {
	byDenom  []model.CatalogCard
	byPrefix []model.CatalogCard
	byNumber []model.CatalogCard
	byFuzzy  []model.CatalogCard
	err      error

	calls []string
}

func (f *fakeCatalog) ByNumberDenominator(_ context.Context, _, _ string) ([]model.CatalogCard, error) {
	f.calls = append(f.calls, "denominator")
	return f.byDenom, f.err
}

func (f *fakeCatalog) ByNumberPrefix(_ context.Context, _, _ string) ([]model.CatalogCard, error) {
	f.calls = append(f.calls, "prefix")
	return f.byPrefix, f.err
}

func (f *fakeCatalog) ByNumber(_ context.Context, _ string, _ int) ([]model.CatalogCard, error) {
	f.calls = append(f.calls, "number")
	return f.byNumber, f.err
}

func (f *fakeCatalog) ByNameFuzzy(_ context.Context, _ string, _ int) ([]model.CatalogCard, error) {
	f.calls = append(f.calls, "fuzzy")
	return f.byFuzzy, f.err
}

func testMatcherConfig() config.MatcherConfig {
	return config.MatcherConfig{
		MinConfidence: 0.45,
		NameGate:      0.60,
		NumberCap:     50,
		NarrowAbove:   5,
		FuzzyCap:      20,
	}
}

func TestRetrieve_DenominatorFirst(t *testing.T) {
	catalog := &fakeCatalog{byDenom: []model.CatalogCard{card("c1", "Charizard ex", "Obsidian Flames")}}
	r := NewRetriever(catalog, testMatcherConfig())

	cards, strategy, err := r.Retrieve(context.Background(), &model.NormalizedListing{
		Number: &model.CardNumber{Value: "199", Denominator: "165"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StrategyNumberDenominator, strategy)
	assert.Len(t, cards, 1)
	assert.Equal(t, []string{"denominator"}, catalog.calls)
}

func TestRetrieve_FallsThroughToNumberOnly(t *testing.T) {
	catalog := &fakeCatalog{byNumber: []model.CatalogCard{card("c1", "Charizard ex", "Obsidian Flames")}}
	r := NewRetriever(catalog, testMatcherConfig())

	cards, strategy, err := r.Retrieve(context.Background(), &model.NormalizedListing{
		Number: &model.CardNumber{Value: "199", Denominator: "165"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StrategyNumberOnly, strategy)
	assert.Len(t, cards, 1)
	assert.Equal(t, []string{"denominator", "number"}, catalog.calls)
}

func TestRetrieve_PrefixStrategy(t *testing.T) {
	catalog := &fakeCatalog{byPrefix: []model.CatalogCard{card("c1", "Pikachu", "SWSH Promos")}}
	r := NewRetriever(catalog, testMatcherConfig())

	cards, strategy, err := r.Retrieve(context.Background(), &model.NormalizedListing{
		Number: &model.CardNumber{Value: "50", Prefix: "SWSH"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StrategyNumberPrefix, strategy)
	assert.Len(t, cards, 1)
	assert.Equal(t, []string{"prefix"}, catalog.calls)
}

func TestRetrieve_NarrowsBySetWhenWide(t *testing.T) {
	wide := make([]model.CatalogCard, 0, 8)
	for i := 0; i < 7; i++ {
		wide = append(wide, card("other", "Pikachu", "Paldea Evolved"))
	}
	wide = append(wide, card("c-right", "Charizard ex", "Obsidian Flames"))

	catalog := &fakeCatalog{byNumber: wide}
	r := NewRetriever(catalog, testMatcherConfig())

	cards, strategy, err := r.Retrieve(context.Background(), &model.NormalizedListing{
		Number:  &model.CardNumber{Value: "4"},
		SetName: "obsidian flames",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StrategyNumberOnly, strategy)
	require.Len(t, cards, 1)
	assert.Equal(t, "c-right", cards[0].ID)
}

func TestRetrieve_KeepsWideSetWhenNarrowingEmpties(t *testing.T) {
	wide := make([]model.CatalogCard, 0, 6)
	for i := 0; i < 6; i++ {
		wide = append(wide, card("other", "Pikachu", "Paldea Evolved"))
	}

	catalog := &fakeCatalog{byNumber: wide}
	r := NewRetriever(catalog, testMatcherConfig())

	cards, _, err := r.Retrieve(context.Background(), &model.NormalizedListing{
		Number:  &model.CardNumber{Value: "4"},
		SetName: "obsidian flames",
	})
	require.NoError(t, err)
	assert.Len(t, cards, 6)
}

func TestRetrieve_FuzzyOnlyWithoutNumber(t *testing.T) {
	catalog := &fakeCatalog{byFuzzy: []model.CatalogCard{card("c1", "Charizard ex", "Obsidian Flames")}}
	r := NewRetriever(catalog, testMatcherConfig())

	cards, strategy, err := r.Retrieve(context.Background(), &model.NormalizedListing{
		Name: "charizard ex",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StrategyFuzzyName, strategy)
	assert.Len(t, cards, 1)
	assert.Equal(t, []string{"fuzzy"}, catalog.calls)
}

func TestRetrieve_NothingToQuery(t *testing.T) {
	catalog := &fakeCatalog{}
	r := NewRetriever(catalog, testMatcherConfig())

	cards, strategy, err := r.Retrieve(context.Background(), &model.NormalizedListing{})
	require.NoError(t, err)
	assert.Empty(t, cards)
	assert.Empty(t, string(strategy))
	assert.Empty(t, catalog.calls)
}

func TestRetrieve_PropagatesStoreError(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("connection refused")}
	r := NewRetriever(catalog, testMatcherConfig())

	_, _, err := r.Retrieve(context.Background(), &model.NormalizedListing{
		Number: &model.CardNumber{Value: "199", Denominator: "165"},
	})
	assert.Error(t, err)
}
