package junk

import (
	"context"

	"github.com/dealhawk/cardmatch/internal/model"
	"github.com/dealhawk/cardmatch/internal/normalize"
)

// Classifier combines the ordered rule set with the learned extension.
// Classification is terminal: a junk verdict stops extraction.
type Classifier struct {
	rules     []Rule
	refresher *Refresher
	threshold float64
}

// NewClassifier creates a Classifier. refresher may be nil, which disables
// the learned extension (rules still apply).
func NewClassifier(rules []Rule, refresher *Refresher, threshold float64) *Classifier {
	if threshold <= 0 {
		threshold = 0.5
	}
	return &Classifier{rules: rules, refresher: refresher, threshold: threshold}
}

// Classify returns the junk reason for a cleaned title, or ok=false when
// the listing looks like a single genuine card.
func (c *Classifier) Classify(ctx context.Context, cleanTitle, sellerID string) (model.JunkReason, bool) {
	if reason, hit := MatchRules(c.rules, cleanTitle); hit {
		return reason, true
	}

	if c.refresher != nil {
		snap := c.refresher.Snapshot(ctx)
		if Penalty(snap, normalize.Tokens(cleanTitle), sellerID) >= c.threshold {
			return model.JunkLearnedTokens, true
		}
	}

	return "", false
}
