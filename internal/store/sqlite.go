package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/agext/levenshtein"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/dealhawk/cardmatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite, for single-box
// deployments. Fuzzy name retrieval has no trigram support here, so it
// ranks a coarse LIKE candidate set by Levenshtein similarity in Go.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS cards (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	number            TEXT NOT NULL,
	number_normalized TEXT NOT NULL,
	number_prefix     TEXT NOT NULL DEFAULT '',
	printed_total     INTEGER NOT NULL DEFAULT 0,
	set_id            TEXT NOT NULL,
	set_name          TEXT NOT NULL,
	set_code          TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS variants (
	id            TEXT PRIMARY KEY,
	card_id       TEXT NOT NULL REFERENCES cards(id),
	name          TEXT NOT NULL,
	prices        TEXT,
	graded_prices TEXT
);

CREATE TABLE IF NOT EXISTS matches (
	id             TEXT PRIMARY KEY,
	listing_id     TEXT NOT NULL,
	card_id        TEXT NOT NULL,
	variant_id     TEXT NOT NULL,
	number_key     TEXT NOT NULL DEFAULT '',
	signals        TEXT NOT NULL,
	composite      REAL NOT NULL,
	strategy       TEXT NOT NULL,
	variant_method TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS reviews (
	id              TEXT PRIMARY KEY,
	match_id        TEXT NOT NULL REFERENCES matches(id),
	correct         INTEGER NOT NULL,
	reason          TEXT,
	correct_card_id TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS weight_sets (
	version    TEXT PRIMARY KEY,
	weights    TEXT NOT NULL,
	metadata   TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS confusion_records (
	id              TEXT PRIMARY KEY,
	number_key      TEXT NOT NULL,
	wrong_card_id   TEXT NOT NULL,
	correct_card_id TEXT,
	reason          TEXT NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS junk_tokens (
	token        TEXT PRIMARY KEY,
	report_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS junk_sellers (
	seller_id    TEXT PRIMARY KEY,
	report_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_cards_number ON cards(number_normalized);
CREATE INDEX IF NOT EXISTS idx_cards_number_total ON cards(number_normalized, printed_total);
CREATE INDEX IF NOT EXISTS idx_variants_card_id ON variants(card_id);
CREATE INDEX IF NOT EXISTS idx_matches_listing_id ON matches(listing_id);
CREATE INDEX IF NOT EXISTS idx_reviews_match_id ON reviews(match_id);
CREATE INDEX IF NOT EXISTS idx_confusion_number_key ON confusion_records(number_key);
CREATE INDEX IF NOT EXISTS idx_weight_sets_created ON weight_sets(created_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteCardColumns = `id, name, number, number_normalized, printed_total, set_id, set_name, set_code`

func (s *SQLiteStore) ByNumberDenominator(ctx context.Context, value, denominator string) ([]model.CatalogCard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteCardColumns+` FROM cards WHERE number_normalized = ? AND printed_total = CAST(? AS INTEGER)`,
		value, denominator,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query by number+denominator")
	}
	return s.collectCards(ctx, rows)
}

func (s *SQLiteStore) ByNumberPrefix(ctx context.Context, value, prefix string) ([]model.CatalogCard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteCardColumns+` FROM cards WHERE number_normalized = ? AND UPPER(number_prefix) = UPPER(?)`,
		value, prefix,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query by number+prefix")
	}
	return s.collectCards(ctx, rows)
}

func (s *SQLiteStore) ByNumber(ctx context.Context, value string, limit int) ([]model.CatalogCard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteCardColumns+` FROM cards WHERE number_normalized = ? LIMIT ?`,
		value, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query by number")
	}
	return s.collectCards(ctx, rows)
}

// sqliteFuzzyMin is the similarity floor matching the Postgres trigram
// threshold.
const sqliteFuzzyMin = 0.3

func (s *SQLiteStore) ByNameFuzzy(ctx context.Context, name string, limit int) ([]model.CatalogCard, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, nil
	}

	// Coarse prefilter on the first token keeps the Go-side ranking cheap.
	firstToken := needle
	if i := strings.IndexByte(needle, ' '); i > 0 {
		firstToken = needle[:i]
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteCardColumns+` FROM cards WHERE LOWER(name) LIKE ?`,
		"%"+firstToken+"%",
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: fuzzy name query")
	}
	cards, err := s.collectCards(ctx, rows)
	if err != nil {
		return nil, err
	}

	type scored struct {
		card model.CatalogCard
		sim  float64
	}
	var ranked []scored
	for _, c := range cards {
		sim := levenshtein.Similarity(needle, strings.ToLower(c.Name), nil)
		if sim > sqliteFuzzyMin {
			ranked = append(ranked, scored{card: c, sim: sim})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].sim > ranked[j].sim })

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]model.CatalogCard, len(ranked))
	for i, r := range ranked {
		out[i] = r.card
	}
	return out, nil
}

func (s *SQLiteStore) collectCards(ctx context.Context, rows *sql.Rows) ([]model.CatalogCard, error) {
	defer rows.Close()

	var cards []model.CatalogCard
	for rows.Next() {
		var c model.CatalogCard
		if err := rows.Scan(&c.ID, &c.Name, &c.Number, &c.NumberNormalized, &c.PrintedTotal, &c.SetID, &c.SetName, &c.SetCode); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan card")
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate cards")
	}
	if len(cards) == 0 {
		return nil, nil
	}

	for i := range cards {
		variants, err := s.variantsForCard(ctx, cards[i].ID)
		if err != nil {
			return nil, err
		}
		cards[i].Variants = variants
	}
	return cards, nil
}

func (s *SQLiteStore) variantsForCard(ctx context.Context, cardID string) ([]model.Variant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, prices, graded_prices FROM variants WHERE card_id = ?`,
		cardID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query variants for %s", cardID)
	}
	defer rows.Close()

	var variants []model.Variant
	for rows.Next() {
		var v model.Variant
		var pricesJSON, gradedJSON sql.NullString
		if err := rows.Scan(&v.ID, &v.Name, &pricesJSON, &gradedJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan variant")
		}
		if pricesJSON.Valid && pricesJSON.String != "" {
			if err := json.Unmarshal([]byte(pricesJSON.String), &v.Prices); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal prices")
			}
		}
		if gradedJSON.Valid && gradedJSON.String != "" {
			if err := json.Unmarshal([]byte(gradedJSON.String), &v.GradedPrices); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal graded prices")
			}
		}
		variants = append(variants, v)
	}
	return variants, eris.Wrap(rows.Err(), "sqlite: iterate variants")
}

func (s *SQLiteStore) SaveMatchResult(ctx context.Context, mr *model.MatchResult) error {
	signalsJSON, err := json.Marshal(mr.Signals)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal signals")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO matches (id, listing_id, card_id, variant_id, number_key, signals, composite, strategy, variant_method, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mr.MatchID, mr.ListingID, mr.CardID, mr.VariantID, mr.NumberKey,
		string(signalsJSON), mr.Composite, string(mr.Strategy), string(mr.VariantMethod), mr.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert match")
}

func (s *SQLiteStore) GetMatchResult(ctx context.Context, matchID string) (*model.MatchResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, listing_id, card_id, variant_id, number_key, signals, composite, strategy, variant_method, created_at
		 FROM matches WHERE id = ?`,
		matchID,
	)

	var mr model.MatchResult
	var signalsJSON, strategy, method string
	err := row.Scan(&mr.MatchID, &mr.ListingID, &mr.CardID, &mr.VariantID, &mr.NumberKey,
		&signalsJSON, &mr.Composite, &strategy, &method, &mr.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: match not found: %s", matchID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get match %s", matchID)
	}
	if err := json.Unmarshal([]byte(signalsJSON), &mr.Signals); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal signals")
	}
	mr.Strategy = model.Strategy(strategy)
	mr.VariantMethod = model.VariantMethod(method)
	return &mr, nil
}

func (s *SQLiteStore) SaveReview(ctx context.Context, review model.Review) error {
	createdAt := review.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (id, match_id, correct, reason, correct_card_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), review.MatchID, review.Correct, string(review.Reason), review.CorrectCardID, createdAt,
	)
	return eris.Wrap(err, "sqlite: insert review")
}

func (s *SQLiteStore) ListReviewedMatches(ctx context.Context) ([]model.ReviewedMatch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.listing_id, m.signals, m.composite, r.correct
		 FROM matches m
		 JOIN reviews r ON r.id = (
			SELECT id FROM reviews WHERE match_id = m.id ORDER BY created_at DESC LIMIT 1
		 )`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query reviewed matches")
	}
	defer rows.Close()

	var out []model.ReviewedMatch
	for rows.Next() {
		var rm model.ReviewedMatch
		var signalsJSON string
		if err := rows.Scan(&rm.MatchID, &rm.ListingID, &signalsJSON, &rm.Composite, &rm.Correct); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan reviewed match")
		}
		if err := json.Unmarshal([]byte(signalsJSON), &rm.Signals); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal signals")
		}
		out = append(out, rm)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate reviewed matches")
}

func (s *SQLiteStore) ActiveWeightSet(ctx context.Context) (model.WeightSet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT version, weights, metadata, created_at FROM weight_sets ORDER BY created_at DESC LIMIT 1`,
	)
	ws, err := scanWeightSet(row)
	if err == sql.ErrNoRows {
		return model.DefaultWeightSet(), nil
	}
	if err != nil {
		return model.WeightSet{}, eris.Wrap(err, "sqlite: get active weight set")
	}
	return ws, nil
}

func (s *SQLiteStore) SaveWeightSet(ctx context.Context, ws model.WeightSet) error {
	weightsJSON, err := json.Marshal(ws.Weights)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal weights")
	}
	var metadataJSON sql.NullString
	if ws.Metadata != nil {
		b, err := json.Marshal(ws.Metadata)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal weight metadata")
		}
		metadataJSON = sql.NullString{String: string(b), Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO weight_sets (version, weights, metadata, created_at) VALUES (?, ?, ?, ?)`,
		ws.Version, string(weightsJSON), metadataJSON, ws.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert weight set")
}

func (s *SQLiteStore) ListWeightSets(ctx context.Context, limit int) ([]model.WeightSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, weights, metadata, created_at FROM weight_sets ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query weight sets")
	}
	defer rows.Close()

	var out []model.WeightSet
	for rows.Next() {
		ws, err := scanWeightSet(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan weight set")
		}
		out = append(out, ws)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate weight sets")
}

func (s *SQLiteStore) SaveConfusionRecord(ctx context.Context, rec model.ConfusionRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO confusion_records (id, number_key, wrong_card_id, correct_card_id, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), rec.NumberKey, rec.WrongCardID, rec.CorrectCardID, string(rec.Reason), createdAt,
	)
	return eris.Wrap(err, "sqlite: insert confusion record")
}

func (s *SQLiteStore) ListConfusionRecords(ctx context.Context) ([]model.ConfusionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT number_key, wrong_card_id, correct_card_id, reason, created_at
		 FROM confusion_records c
		 WHERE created_at = (
			SELECT MAX(created_at) FROM confusion_records
			WHERE number_key = c.number_key AND wrong_card_id = c.wrong_card_id
		 )
		 ORDER BY number_key, wrong_card_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query confusion records")
	}
	return collectSQLiteConfusion(rows)
}

func (s *SQLiteStore) ListConfusionByKey(ctx context.Context, numberKey string) ([]model.ConfusionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT number_key, wrong_card_id, correct_card_id, reason, created_at
		 FROM confusion_records c
		 WHERE number_key = ? AND created_at = (
			SELECT MAX(created_at) FROM confusion_records
			WHERE number_key = c.number_key AND wrong_card_id = c.wrong_card_id
		 )
		 ORDER BY wrong_card_id`,
		numberKey,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query confusion records for %s", numberKey)
	}
	return collectSQLiteConfusion(rows)
}

func (s *SQLiteStore) JunkSignals(ctx context.Context) (map[string]int, map[string]int, error) {
	tokens, err := s.countTable(ctx, `SELECT token, report_count FROM junk_tokens WHERE report_count > 0`)
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: query junk tokens")
	}
	sellers, err := s.countTable(ctx, `SELECT seller_id, report_count FROM junk_sellers WHERE report_count > 0`)
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: query junk sellers")
	}
	return tokens, sellers, nil
}

func (s *SQLiteStore) countTable(ctx context.Context, query string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		out[key] = count
	}
	return out, rows.Err()
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanWeightSet(row scannable) (model.WeightSet, error) {
	var ws model.WeightSet
	var weightsJSON string
	var metadataJSON sql.NullString

	if err := row.Scan(&ws.Version, &weightsJSON, &metadataJSON, &ws.CreatedAt); err != nil {
		return model.WeightSet{}, err
	}
	if err := json.Unmarshal([]byte(weightsJSON), &ws.Weights); err != nil {
		return model.WeightSet{}, eris.Wrap(err, "sqlite: unmarshal weights")
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &ws.Metadata); err != nil {
			return model.WeightSet{}, eris.Wrap(err, "sqlite: unmarshal weight metadata")
		}
	}
	return ws, nil
}

func collectSQLiteConfusion(rows *sql.Rows) ([]model.ConfusionRecord, error) {
	defer rows.Close()

	var out []model.ConfusionRecord
	for rows.Next() {
		var rec model.ConfusionRecord
		var correctCardID sql.NullString
		var reason string
		if err := rows.Scan(&rec.NumberKey, &rec.WrongCardID, &correctCardID, &reason, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan confusion record")
		}
		rec.CorrectCardID = correctCardID.String
		rec.Reason = model.ReviewReason(reason)
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate confusion records")
}
