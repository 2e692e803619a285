package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/dealhawk/cardmatch/internal/config"
	"github.com/dealhawk/cardmatch/internal/model"
)

// PostgresStore implements Store using pgxpool. Fuzzy name retrieval uses
// the pg_trgm extension's similarity().
type PostgresStore struct {
	pool Pool
}

// preparedStatements lists the hot catalog queries to prepare on each new
// connection.
var preparedStatements = map[string]string{
	"cards_by_number_denom": `SELECT id, name, number, number_normalized, printed_total, set_id, set_name, set_code FROM cards WHERE number_normalized = $1 AND printed_total = $2`,
	"cards_by_number_prefix": `SELECT id, name, number, number_normalized, printed_total, set_id, set_name, set_code FROM cards WHERE number_normalized = $1 AND number_prefix = $2`,
	"cards_by_number":        `SELECT id, name, number, number_normalized, printed_total, set_id, set_name, set_code FROM cards WHERE number_normalized = $1 LIMIT $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, cfg config.StoreConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if cfg.MaxConns > 0 {
		maxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		minConns = cfg.MinConns
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS pg_trgm;

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
	prices        JSONB,
	graded_prices JSONB
);

CREATE TABLE IF NOT EXISTS matches (
	id             TEXT PRIMARY KEY,
	listing_id     TEXT NOT NULL,
	card_id        TEXT NOT NULL,
	variant_id     TEXT NOT NULL,
	number_key     TEXT NOT NULL DEFAULT '',
	signals        JSONB NOT NULL,
	composite      DOUBLE PRECISION NOT NULL,
	strategy       TEXT NOT NULL,
	variant_method TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS reviews (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	match_id        TEXT NOT NULL REFERENCES matches(id),
	correct         BOOLEAN NOT NULL,
	reason          TEXT,
	correct_card_id TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS weight_sets (
	version    TEXT PRIMARY KEY,
	weights    JSONB NOT NULL,
	metadata   JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS confusion_records (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	number_key      TEXT NOT NULL,
	wrong_card_id   TEXT NOT NULL,
	correct_card_id TEXT,
	reason          TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
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
CREATE INDEX IF NOT EXISTS idx_cards_name_trgm ON cards USING gin (lower(name) gin_trgm_ops);
CREATE INDEX IF NOT EXISTS idx_variants_card_id ON variants(card_id);
CREATE INDEX IF NOT EXISTS idx_matches_listing_id ON matches(listing_id);
CREATE INDEX IF NOT EXISTS idx_reviews_match_id ON reviews(match_id);
CREATE INDEX IF NOT EXISTS idx_confusion_number_key ON confusion_records(number_key);
CREATE INDEX IF NOT EXISTS idx_weight_sets_created ON weight_sets(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const cardColumns = `id, name, number, number_normalized, printed_total, set_id, set_name, set_code`

// ByNumberDenominator finds cards whose normalized number and printed
// total both match (strategy 1).
func (s *PostgresStore) ByNumberDenominator(ctx context.Context, value, denominator string) ([]model.CatalogCard, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE number_normalized = $1 AND printed_total = $2::integer`,
		value, denominator,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query by number+denominator")
	}
	return s.collectCards(ctx, rows)
}

// ByNumberPrefix finds promo cards by normalized number and prefix
// (strategy 2).
func (s *PostgresStore) ByNumberPrefix(ctx context.Context, value, prefix string) ([]model.CatalogCard, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE number_normalized = $1 AND UPPER(number_prefix) = UPPER($2)`,
		value, prefix,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query by number+prefix")
	}
	return s.collectCards(ctx, rows)
}

// ByNumber finds cards by normalized number alone, capped (strategy 3).
func (s *PostgresStore) ByNumber(ctx context.Context, value string, limit int) ([]model.CatalogCard, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE number_normalized = $1 LIMIT $2`,
		value, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query by number")
	}
	return s.collectCards(ctx, rows)
}

// ByNameFuzzy finds cards by trigram similarity on the canonical name,
// ordered most similar first (strategy 4).
func (s *PostgresStore) ByNameFuzzy(ctx context.Context, name string, limit int) ([]model.CatalogCard, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+cardColumns+` FROM cards
		 WHERE similarity(lower(name), lower($1)) > 0.3
		 ORDER BY similarity(lower(name), lower($1)) DESC
		 LIMIT $2`,
		name, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: fuzzy name query")
	}
	return s.collectCards(ctx, rows)
}

// collectCards scans card rows and attaches their variants.
func (s *PostgresStore) collectCards(ctx context.Context, rows pgx.Rows) ([]model.CatalogCard, error) {
	defer rows.Close()

	var cards []model.CatalogCard
	for rows.Next() {
		var c model.CatalogCard
		if err := rows.Scan(&c.ID, &c.Name, &c.Number, &c.NumberNormalized, &c.PrintedTotal, &c.SetID, &c.SetName, &c.SetCode); err != nil {
			return nil, eris.Wrap(err, "postgres: scan card")
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate cards")
	}
	if len(cards) == 0 {
		return nil, nil
	}

	ids := make([]string, len(cards))
	index := make(map[string]int, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
		index[c.ID] = i
	}

	vrows, err := s.pool.Query(ctx,
		`SELECT card_id, id, name, prices, graded_prices FROM variants WHERE card_id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query variants")
	}
	defer vrows.Close()

	for vrows.Next() {
		var cardID string
		var v model.Variant
		var pricesJSON, gradedJSON []byte
		if err := vrows.Scan(&cardID, &v.ID, &v.Name, &pricesJSON, &gradedJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan variant")
		}
		if len(pricesJSON) > 0 {
			if err := json.Unmarshal(pricesJSON, &v.Prices); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal prices")
			}
		}
		if len(gradedJSON) > 0 {
			if err := json.Unmarshal(gradedJSON, &v.GradedPrices); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal graded prices")
			}
		}
		if i, ok := index[cardID]; ok {
			cards[i].Variants = append(cards[i].Variants, v)
		}
	}
	if err := vrows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate variants")
	}

	return cards, nil
}

// SaveMatchResult persists a produced match.
func (s *PostgresStore) SaveMatchResult(ctx context.Context, mr *model.MatchResult) error {
	signalsJSON, err := json.Marshal(mr.Signals)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal signals")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO matches (id, listing_id, card_id, variant_id, number_key, signals, composite, strategy, variant_method, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		mr.MatchID, mr.ListingID, mr.CardID, mr.VariantID, mr.NumberKey,
		signalsJSON, mr.Composite, string(mr.Strategy), string(mr.VariantMethod), mr.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert match")
}

// GetMatchResult loads one match by ID.
func (s *PostgresStore) GetMatchResult(ctx context.Context, matchID string) (*model.MatchResult, error) {
	var mr model.MatchResult
	var signalsJSON []byte
	var strategy, method string

	err := s.pool.QueryRow(ctx,
		`SELECT id, listing_id, card_id, variant_id, number_key, signals, composite, strategy, variant_method, created_at
		 FROM matches WHERE id = $1`,
		matchID,
	).Scan(&mr.MatchID, &mr.ListingID, &mr.CardID, &mr.VariantID, &mr.NumberKey,
		&signalsJSON, &mr.Composite, &strategy, &method, &mr.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("postgres: match not found: %s", matchID)
		}
		return nil, eris.Wrapf(err, "postgres: get match %s", matchID)
	}

	if err := json.Unmarshal(signalsJSON, &mr.Signals); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal signals")
	}
	mr.Strategy = model.Strategy(strategy)
	mr.VariantMethod = model.VariantMethod(method)
	return &mr, nil
}

// SaveReview records human feedback on a match.
func (s *PostgresStore) SaveReview(ctx context.Context, review model.Review) error {
	createdAt := review.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reviews (id, match_id, correct, reason, correct_card_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), review.MatchID, review.Correct, string(review.Reason), review.CorrectCardID, createdAt,
	)
	return eris.Wrap(err, "postgres: insert review")
}

// ListReviewedMatches returns every match joined with its most recent
// review, for the calibration corpus.
func (s *PostgresStore) ListReviewedMatches(ctx context.Context) ([]model.ReviewedMatch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT m.id, m.listing_id, m.signals, m.composite, r.correct
		 FROM matches m
		 JOIN LATERAL (
			SELECT correct FROM reviews WHERE match_id = m.id ORDER BY created_at DESC LIMIT 1
		 ) r ON true`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query reviewed matches")
	}
	defer rows.Close()

	var out []model.ReviewedMatch
	for rows.Next() {
		var rm model.ReviewedMatch
		var signalsJSON []byte
		if err := rows.Scan(&rm.MatchID, &rm.ListingID, &signalsJSON, &rm.Composite, &rm.Correct); err != nil {
			return nil, eris.Wrap(err, "postgres: scan reviewed match")
		}
		if err := json.Unmarshal(signalsJSON, &rm.Signals); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal signals")
		}
		out = append(out, rm)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate reviewed matches")
}

// ActiveWeightSet returns the most recent weight set, or the defaults
// when none has been persisted yet.
func (s *PostgresStore) ActiveWeightSet(ctx context.Context) (model.WeightSet, error) {
	var ws model.WeightSet
	var weightsJSON, metadataJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT version, weights, metadata, created_at FROM weight_sets ORDER BY created_at DESC LIMIT 1`,
	).Scan(&ws.Version, &weightsJSON, &metadataJSON, &ws.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DefaultWeightSet(), nil
		}
		return model.WeightSet{}, eris.Wrap(err, "postgres: get active weight set")
	}

	if err := json.Unmarshal(weightsJSON, &ws.Weights); err != nil {
		return model.WeightSet{}, eris.Wrap(err, "postgres: unmarshal weights")
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &ws.Metadata); err != nil {
			return model.WeightSet{}, eris.Wrap(err, "postgres: unmarshal weight metadata")
		}
	}
	return ws, nil
}

// SaveWeightSet appends a new weight-set version. Versions are never
// updated in place.
func (s *PostgresStore) SaveWeightSet(ctx context.Context, ws model.WeightSet) error {
	weightsJSON, err := json.Marshal(ws.Weights)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal weights")
	}
	var metadataJSON []byte
	if ws.Metadata != nil {
		metadataJSON, err = json.Marshal(ws.Metadata)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal weight metadata")
		}
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO weight_sets (version, weights, metadata, created_at) VALUES ($1, $2, $3, $4)`,
		ws.Version, weightsJSON, metadataJSON, ws.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert weight set")
}

// ListWeightSets returns recent weight-set versions, newest first.
func (s *PostgresStore) ListWeightSets(ctx context.Context, limit int) ([]model.WeightSet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT version, weights, metadata, created_at FROM weight_sets ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query weight sets")
	}
	defer rows.Close()

	var out []model.WeightSet
	for rows.Next() {
		var ws model.WeightSet
		var weightsJSON, metadataJSON []byte
		if err := rows.Scan(&ws.Version, &weightsJSON, &metadataJSON, &ws.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan weight set")
		}
		if err := json.Unmarshal(weightsJSON, &ws.Weights); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal weights")
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &ws.Metadata); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal weight metadata")
			}
		}
		out = append(out, ws)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate weight sets")
}

// SaveConfusionRecord appends a confusion record.
func (s *PostgresStore) SaveConfusionRecord(ctx context.Context, rec model.ConfusionRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO confusion_records (id, number_key, wrong_card_id, correct_card_id, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), rec.NumberKey, rec.WrongCardID, rec.CorrectCardID, string(rec.Reason), createdAt,
	)
	return eris.Wrap(err, "postgres: insert confusion record")
}

// ListConfusionRecords returns the latest record per (number key, wrong
// card) pair; older records are superseded.
func (s *PostgresStore) ListConfusionRecords(ctx context.Context) ([]model.ConfusionRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT ON (number_key, wrong_card_id)
			number_key, wrong_card_id, correct_card_id, reason, created_at
		 FROM confusion_records
		 ORDER BY number_key, wrong_card_id, created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query confusion records")
	}
	return collectConfusion(rows)
}

// ListConfusionByKey returns the authoritative records for one number key.
func (s *PostgresStore) ListConfusionByKey(ctx context.Context, numberKey string) ([]model.ConfusionRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT ON (wrong_card_id)
			number_key, wrong_card_id, correct_card_id, reason, created_at
		 FROM confusion_records
		 WHERE number_key = $1
		 ORDER BY wrong_card_id, created_at DESC`,
		numberKey,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query confusion records for %s", numberKey)
	}
	return collectConfusion(rows)
}

func collectConfusion(rows pgx.Rows) ([]model.ConfusionRecord, error) {
	defer rows.Close()

	var out []model.ConfusionRecord
	for rows.Next() {
		var rec model.ConfusionRecord
		var correctCardID *string
		var reason string
		if err := rows.Scan(&rec.NumberKey, &rec.WrongCardID, &correctCardID, &reason, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan confusion record")
		}
		if correctCardID != nil {
			rec.CorrectCardID = *correctCardID
		}
		rec.Reason = model.ReviewReason(reason)
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate confusion records")
}

// JunkSignals loads the learned junk-token and seller-report aggregates.
func (s *PostgresStore) JunkSignals(ctx context.Context) (map[string]int, map[string]int, error) {
	tokens := make(map[string]int)
	rows, err := s.pool.Query(ctx, `SELECT token, report_count FROM junk_tokens WHERE report_count > 0`)
	if err != nil {
		return nil, nil, eris.Wrap(err, "postgres: query junk tokens")
	}
	for rows.Next() {
		var token string
		var count int
		if err := rows.Scan(&token, &count); err != nil {
			rows.Close()
			return nil, nil, eris.Wrap(err, "postgres: scan junk token")
		}
		tokens[token] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, eris.Wrap(err, "postgres: iterate junk tokens")
	}

	sellers := make(map[string]int)
	rows, err = s.pool.Query(ctx, `SELECT seller_id, report_count FROM junk_sellers WHERE report_count > 0`)
	if err != nil {
		return nil, nil, eris.Wrap(err, "postgres: query junk sellers")
	}
	defer rows.Close()
	for rows.Next() {
		var seller string
		var count int
		if err := rows.Scan(&seller, &count); err != nil {
			return nil, nil, eris.Wrap(err, "postgres: scan junk seller")
		}
		sellers[seller] = count
	}
	if err := rows.Err(); err != nil {
		return nil, nil, eris.Wrap(err, "postgres: iterate junk sellers")
	}

	return tokens, sellers, nil
}
