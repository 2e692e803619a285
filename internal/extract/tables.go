package extract

import (
	_ "embed"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/dealhawk/cardmatch/internal/model"
)

//go:embed tables.yaml
var tablesYAML []byte

// VariantAlias maps a title phrase to a canonical variant identifier.
type VariantAlias struct {
	Alias   string `yaml:"alias"`
	Variant string `yaml:"variant"`
}

// ConditionKeywords maps title keywords to a condition code.
type ConditionKeywords struct {
	Code     model.Condition `yaml:"code"`
	Keywords []string        `yaml:"keywords"`
}

// Tables holds the embedded keyword tables.
type Tables struct {
	Variants   []VariantAlias      `yaml:"variants"`
	Conditions []ConditionKeywords `yaml:"conditions"`
}

// LoadTables parses the embedded keyword tables. Variant aliases are
// sorted longest-first so the most specific alias wins.
func LoadTables() (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(tablesYAML, &t); err != nil {
		return nil, eris.Wrap(err, "extract: parse tables")
	}
	if len(t.Variants) == 0 || len(t.Conditions) == 0 {
		return nil, eris.New("extract: empty keyword tables")
	}
	sort.SliceStable(t.Variants, func(i, j int) bool {
		return len(t.Variants[i].Alias) > len(t.Variants[j].Alias)
	})
	return &t, nil
}
