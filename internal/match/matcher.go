package match

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealhawk/cardmatch/internal/config"
	"github.com/dealhawk/cardmatch/internal/extract"
	"github.com/dealhawk/cardmatch/internal/model"
	"github.com/dealhawk/cardmatch/internal/score"
)

// Matcher is the full listing-to-catalog pipeline: extraction, candidate
// retrieval, validation, variant resolution and confidence scoring.
// Safe for concurrent use; the only shared state (active weights,
// confusion snapshot) is read atomically per call.
type Matcher struct {
	extractor *extract.Extractor
	retriever *Retriever
	biaser    Biaser
	weights   *score.Holder
	cfg       config.MatcherConfig
}

// NewMatcher wires the pipeline. biaser may be nil (no confusion memory).
func NewMatcher(extractor *extract.Extractor, retriever *Retriever, biaser Biaser, weights *score.Holder, cfg config.MatcherConfig) *Matcher {
	return &Matcher{
		extractor: extractor,
		retriever: retriever,
		biaser:    biaser,
		weights:   weights,
		cfg:       cfg,
	}
}

// Match resolves one listing. Exactly one of result and rejection is
// non-nil on success; err is reserved for infrastructure failures, which
// propagate without retry.
func (m *Matcher) Match(ctx context.Context, listing model.Listing) (*model.MatchResult, *model.Rejection, error) {
	nl, rejection := m.extractor.Extract(ctx, listing)
	if rejection != nil {
		return nil, rejection, nil
	}

	cards, strategy, err := m.retriever.Retrieve(ctx, nl)
	if err != nil {
		return nil, nil, err
	}
	if len(cards) == 0 {
		return nil, &model.Rejection{Reason: model.RejectNoCandidates}, nil
	}

	best := selectCandidate(ctx, nl, cards, m.cfg.NameGate, m.biaser)
	if best == nil {
		return nil, &model.Rejection{Reason: model.RejectNameGate}, nil
	}

	variant, variantScore, method, ok := ResolveVariant(best.Card, nl.Variant)
	if !ok {
		return nil, &model.Rejection{Reason: model.RejectNoPricedVariant}, nil
	}

	signals := model.Signals{
		Name:          best.NameScore,
		Number:        score.NumberSignal(nl),
		Denominator:   score.DenominatorSignal(nl, best.Card),
		Expansion:     best.ExpansionScore,
		Variant:       variantScore,
		Normalization: score.NormalizationSignal(nl),
	}

	weights := m.weights.Load()
	composite := score.Composite(signals, weights)

	if composite < m.cfg.MinConfidence {
		zap.L().Debug("match: below confidence gate",
			zap.String("listing_id", listing.ID),
			zap.Float64("composite", composite),
		)
		return nil, &model.Rejection{Reason: model.RejectLowConfidence}, nil
	}

	result := &model.MatchResult{
		MatchID:       uuid.NewString(),
		ListingID:     listing.ID,
		CardID:        best.Card.ID,
		VariantID:     variant.ID,
		NumberKey:     nl.Number.Key(),
		Signals:       signals,
		Composite:     composite,
		Strategy:      strategy,
		VariantMethod: method,
		CreatedAt:     time.Now().UTC(),
	}

	zap.L().Info("match: resolved listing",
		zap.String("listing_id", listing.ID),
		zap.String("card_id", best.Card.ID),
		zap.String("variant_id", variant.ID),
		zap.Float64("composite", composite),
		zap.String("strategy", string(strategy)),
	)

	return result, nil, nil
}
