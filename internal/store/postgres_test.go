package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealhawk/cardmatch/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func cardRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "name", "number", "number_normalized", "printed_total", "set_id", "set_name", "set_code",
	})
}

func TestPostgresStore_ByNumberDenominator(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM cards WHERE number_normalized = \$1 AND printed_total = \$2`).
		WithArgs("199", "165").
		WillReturnRows(cardRows().
			AddRow("card-199", "Charizard ex", "199", "199", 165, "sv3", "Obsidian Flames", "OBF"))

	prices, err := json.Marshal(map[model.Condition]model.Price{
		model.ConditionNearMint: {Market: 120},
	})
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT card_id, id, name, prices, graded_prices FROM variants`).
		WithArgs([]string{"card-199"}).
		WillReturnRows(pgxmock.NewRows([]string{"card_id", "id", "name", "prices", "graded_prices"}).
			AddRow("card-199", "v-holo", "holofoil", prices, []byte(nil)))

	cards, err := s.ByNumberDenominator(context.Background(), "199", "165")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "Charizard ex", cards[0].Name)
	assert.Equal(t, 165, cards[0].PrintedTotal)
	require.Len(t, cards[0].Variants, 1)
	assert.Equal(t, 120.0, cards[0].Variants[0].Prices[model.ConditionNearMint].Market)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ByNumber_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM cards WHERE number_normalized = \$1 LIMIT \$2`).
		WithArgs("999", 50).
		WillReturnRows(cardRows())

	cards, err := s.ByNumber(context.Background(), "999", 50)
	require.NoError(t, err)
	assert.Empty(t, cards)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveMatchResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO matches`).
		WithArgs("m1", "l1", "card-199", "v-holo", "199",
			pgxmock.AnyArg(), 0.92, "number_denominator", "only_priced", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveMatchResult(context.Background(), &model.MatchResult{
		MatchID:       "m1",
		ListingID:     "l1",
		CardID:        "card-199",
		VariantID:     "v-holo",
		NumberKey:     "199",
		Composite:     0.92,
		Strategy:      model.StrategyNumberDenominator,
		VariantMethod: model.VariantOnlyPriced,
		CreatedAt:     time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMatchResult_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM matches WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetMatchResult(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ActiveWeightSet_DefaultsWhenEmpty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM weight_sets ORDER BY created_at DESC LIMIT 1`).
		WillReturnError(pgx.ErrNoRows)

	ws, err := s.ActiveWeightSet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "default", ws.Version)
	assert.True(t, ws.Valid())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ActiveWeightSet(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	weights, err := json.Marshal(model.DefaultWeights())
	require.NoError(t, err)
	created := time.Now().UTC()

	mock.ExpectQuery(`FROM weight_sets ORDER BY created_at DESC LIMIT 1`).
		WillReturnRows(pgxmock.NewRows([]string{"version", "weights", "metadata", "created_at"}).
			AddRow("v2", weights, []byte(nil), created))

	ws, err := s.ActiveWeightSet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", ws.Version)
	assert.True(t, ws.Valid())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveReview(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO reviews`).
		WithArgs(pgxmock.AnyArg(), "m1", false, "wrong_item", "c-right", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveReview(context.Background(), model.Review{
		MatchID:       "m1",
		Correct:       false,
		Reason:        model.ReasonWrongItem,
		CorrectCardID: "c-right",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListConfusionByKey(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	created := time.Now().UTC()
	correct := "c-right"

	mock.ExpectQuery(`FROM confusion_records`).
		WithArgs("199").
		WillReturnRows(pgxmock.NewRows([]string{"number_key", "wrong_card_id", "correct_card_id", "reason", "created_at"}).
			AddRow("199", "c-wrong", &correct, "wrong_item", created).
			AddRow("199", "c-other", (*string)(nil), "wrong_set", created))

	records, err := s.ListConfusionByKey(context.Background(), "199")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c-right", records[0].CorrectCardID)
	assert.Empty(t, records[1].CorrectCardID)
	assert.Equal(t, model.ReasonWrongSet, records[1].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_JunkSignals(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM junk_tokens`).
		WillReturnRows(pgxmock.NewRows([]string{"token", "report_count"}).
			AddRow("repack", 3))
	mock.ExpectQuery(`FROM junk_sellers`).
		WillReturnRows(pgxmock.NewRows([]string{"seller_id", "report_count"}).
			AddRow("seller-9", 5))

	tokens, sellers, err := s.JunkSignals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, tokens["repack"])
	assert.Equal(t, 5, sellers["seller-9"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListReviewedMatches(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	signals, err := json.Marshal(model.Signals{Name: 1, Number: 1, Denominator: 1, Expansion: 1, Variant: 0.95, Normalization: 1})
	require.NoError(t, err)

	mock.ExpectQuery(`FROM matches m`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "listing_id", "signals", "composite", "correct"}).
			AddRow("m1", "l1", signals, 0.995, true))

	reviewed, err := s.ListReviewedMatches(context.Background())
	require.NoError(t, err)
	require.Len(t, reviewed, 1)
	assert.True(t, reviewed[0].Correct)
	assert.Equal(t, 0.95, reviewed[0].Signals.Variant)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS cards`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
