package match

import (
	"strings"

	"github.com/dealhawk/cardmatch/internal/normalize"
)

// Expansion validation scores.
const (
	expansionExact       = 1.0
	expansionContainment = 0.90
	expansionNeutral     = 0.50
	expansionMismatch    = 0.30
)

// ValidateExpansion scores the extracted set hint against the candidate's
// set name or code. Absence of a hint is neutral, not a penalty.
func ValidateExpansion(extractedSet, setName, setCode string) float64 {
	hint := normalize.Clean(extractedSet)
	if hint == "" {
		return expansionNeutral
	}

	name := normalize.Clean(setName)
	code := normalize.Clean(setCode)

	if hint == name || (code != "" && hint == code) {
		return expansionExact
	}
	if name != "" && (strings.Contains(name, hint) || strings.Contains(hint, name)) {
		return expansionContainment
	}
	return expansionMismatch
}
