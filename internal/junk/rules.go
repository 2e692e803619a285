// Package junk rejects listings that are not single genuine cards:
// bulk lots, reproductions, non-card products, and non-English cards.
// A fixed ordered rule set runs first; a learned extension penalizes
// titles carrying reviewer-reported tokens and repeat-offending sellers.
package junk

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/dealhawk/cardmatch/internal/model"
)

//go:embed rules.yaml
var rulesYAML []byte

// Rule is one ordered classification rule: any phrase hit yields Reason.
type Rule struct {
	Reason  model.JunkReason `yaml:"reason"`
	Phrases []string         `yaml:"phrases"`
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules parses the embedded rule table.
func LoadRules() ([]Rule, error) {
	var rf ruleFile
	if err := yaml.Unmarshal(rulesYAML, &rf); err != nil {
		return nil, eris.Wrap(err, "junk: parse rules")
	}
	if len(rf.Rules) == 0 {
		return nil, eris.New("junk: empty rule table")
	}
	return rf.Rules, nil
}

// MatchRules returns the first rule reason whose phrase appears in the
// cleaned title on word boundaries.
func MatchRules(rules []Rule, cleanTitle string) (model.JunkReason, bool) {
	padded := " " + cleanTitle + " "
	for _, rule := range rules {
		for _, phrase := range rule.Phrases {
			if containsPhrase(padded, phrase) {
				return rule.Reason, true
			}
		}
	}
	return "", false
}

// containsPhrase checks for phrase as a whole-word sequence. padded must
// carry a leading and trailing space.
func containsPhrase(padded, phrase string) bool {
	return strings.Contains(padded, " "+phrase+" ")
}
