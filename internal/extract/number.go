// Package extract turns a raw listing into a NormalizedListing: collector
// number, variant keyword and condition state, with per-field provenance
// recording whether structured data or the title produced each value.
package extract

import (
	"regexp"
	"strings"

	"github.com/dealhawk/cardmatch/internal/model"
)

var (
	// 006/197 style: collector number over the set's printed total.
	numberDenomRe = regexp.MustCompile(`(?:^|[ #])(\d{1,3})/(\d{1,3})(?:$|[ ])`)

	// Alphanumeric promo numbers: SV001, SWSH050, SM210, TG12.
	numberPrefixRe = regexp.MustCompile(`(?:^|[ #])(sv|swsh|sm|xy|bw|dp|hgss|svp|tg|gg|rc)(\d{2,4})(?:$|[ ])`)

	bareNumberRe = regexp.MustCompile(`(?:^|[ #])(\d{1,3})(?:$|[ ])`)
)

// ParseNumber extracts a collector number from a cleaned title. Returns
// nil when no usable number pattern is present.
func ParseNumber(cleanTitle string) *model.CardNumber {
	if m := numberDenomRe.FindStringSubmatch(cleanTitle); m != nil {
		return &model.CardNumber{
			Value:       stripZeros(m[1]),
			Denominator: stripZeros(m[2]),
		}
	}

	if m := numberPrefixRe.FindStringSubmatch(cleanTitle); m != nil {
		return &model.CardNumber{
			Value:  stripZeros(m[2]),
			Prefix: strings.ToUpper(m[1]),
		}
	}

	if m := bareNumberRe.FindStringSubmatch(cleanTitle); m != nil {
		return &model.CardNumber{Value: stripZeros(m[1])}
	}

	return nil
}

// NumberSpan reports the byte range of the number pattern in the cleaned
// title, used to split name tokens (before) from set tokens (after).
// Returns ok=false when no number is present.
func NumberSpan(cleanTitle string) (start, end int, ok bool) {
	for _, re := range []*regexp.Regexp{numberDenomRe, numberPrefixRe, bareNumberRe} {
		if loc := re.FindStringIndex(cleanTitle); loc != nil {
			return loc[0], loc[1], true
		}
	}
	return 0, 0, false
}

// stripZeros normalizes a digit string by removing leading zeros.
func stripZeros(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
