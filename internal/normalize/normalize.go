// Package normalize canonicalizes raw listing titles before extraction.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer decomposes accented characters and strips the combining
// marks, so "Pokémon" and "Pokemon" normalize identically.
var foldTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Clean lowercases a raw title, folds accents, replaces punctuation with
// spaces (keeping '/', '-' and '#', which carry card-number meaning), and
// collapses runs of whitespace.
func Clean(title string) string {
	folded, _, err := transform.String(foldTransformer, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '/' || r == '-' || r == '#':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens splits a cleaned title into its words.
func Tokens(clean string) []string {
	return strings.Fields(clean)
}
