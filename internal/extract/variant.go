package extract

import "strings"

// DetectVariant scans the cleaned title for a variant keyword and returns
// the canonical variant identifier, or "". Aliases are checked longest
// first, so "reverse holo" wins over the bare "holo".
func (e *Extractor) DetectVariant(cleanTitle string) string {
	padded := " " + cleanTitle + " "
	for _, va := range e.tables.Variants {
		if strings.Contains(padded, " "+va.Alias+" ") {
			return va.Variant
		}
	}
	return ""
}
