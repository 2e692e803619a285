package match

import (
	"strings"

	"github.com/dealhawk/cardmatch/internal/normalize"
)

// Name validation constants.
const (
	// NameGate excludes a candidate outright, independent of its other
	// signals, but only when a name was actually extracted.
	NameGate = 0.60

	// Defaults when no name was extracted: neutral, or penalized when
	// several same-numbered candidates are in play.
	NoNameNeutral   = 0.50
	NoNameAmbiguous = 0.30

	containmentFloor = 0.80

	winklerPrefixCap = 4
	winklerScale     = 0.1
)

// ValidateName scores how well a candidate's canonical name matches the
// extracted name: exact 1.0, containment max(0.80, len ratio), otherwise
// Jaro-Winkler similarity.
func ValidateName(extracted, candidateName string) float64 {
	a := normalize.Clean(extracted)
	b := normalize.Clean(candidateName)

	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		shorter, longer := len(a), len(b)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		ratio := float64(shorter) / float64(longer)
		if ratio < containmentFloor {
			return containmentFloor
		}
		return ratio
	}

	return JaroWinkler(a, b)
}

// JaroWinkler computes Jaro similarity with the Winkler common-prefix
// boost (prefix window capped at 4, scale 0.1).
func JaroWinkler(a, b string) float64 {
	j := jaro(a, b)
	if j == 0 {
		return 0
	}

	prefix := 0
	limit := winklerPrefixCap
	if len(a) < limit {
		limit = len(a)
	}
	if len(b) < limit {
		limit = len(b)
	}
	for i := 0; i < limit; i++ {
		if a[i] != b[i] {
			break
		}
		prefix++
	}

	return j + float64(prefix)*winklerScale*(1-j)
}

func jaro(a, b string) float64 {
	la, lb := len(a), len(b)
	if la == 0 && lb == 0 {
		return 1
	}
	if la == 0 || lb == 0 {
		return 0
	}

	window := la
	if lb > window {
		window = lb
	}
	window = window/2 - 1
	if window < 0 {
		window = 0
	}

	matchedA := make([]bool, la)
	matchedB := make([]bool, lb)
	matches := 0

	for i := 0; i < la; i++ {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window
		if hi > lb-1 {
			hi = lb - 1
		}
		for k := lo; k <= hi; k++ {
			if matchedB[k] || a[i] != b[k] {
				continue
			}
			matchedA[i] = true
			matchedB[k] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0
	}

	// Count transpositions among matched characters.
	transpositions := 0
	k := 0
	for i := 0; i < la; i++ {
		if !matchedA[i] {
			continue
		}
		for !matchedB[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	return (m/float64(la) + m/float64(lb) + (m-float64(transpositions)/2)/m) / 3
}
