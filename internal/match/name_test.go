package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name      string
		extracted string
		candidate string
		want      float64
		delta     float64
	}{
		{
			name:      "exact after normalization",
			extracted: "Charizard EX",
			candidate: "charizard ex",
			want:      1.0,
		},
		{
			name:      "containment floored",
			extracted: "charizard",
			candidate: "charizard ex obsidian",
			want:      0.80,
		},
		{
			name:      "containment ratio above floor",
			extracted: "charizard e",
			candidate: "charizard ex",
			want:      11.0 / 12.0,
			delta:     1e-9,
		},
		{
			name:      "empty extracted",
			extracted: "",
			candidate: "charizard",
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateName(tt.extracted, tt.candidate)
			if tt.delta > 0 {
				assert.InDelta(t, tt.want, got, tt.delta)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestValidateName_TypoScoresHigh(t *testing.T) {
	// A one-letter typo should clear the hard gate.
	got := ValidateName("charzard", "charizard")
	assert.Greater(t, got, NameGate)

	// A different card name should not.
	got = ValidateName("pidgey", "charizard")
	assert.Less(t, got, NameGate)
}

func TestJaroWinkler(t *testing.T) {
	assert.Equal(t, 1.0, JaroWinkler("charizard", "charizard"))
	assert.Equal(t, 0.0, JaroWinkler("abc", "xyz"))

	// Common-prefix boost: prefix-sharing pairs outrank suffix-sharing ones.
	withPrefix := JaroWinkler("charizard", "charizarb")
	withoutPrefix := JaroWinkler("charizard", "xharizard")
	assert.Greater(t, withPrefix, withoutPrefix)
}

func TestValidateExpansion(t *testing.T) {
	tests := []struct {
		name    string
		hint    string
		setName string
		setCode string
		want    float64
	}{
		{"no hint is neutral", "", "Obsidian Flames", "OBF", 0.50},
		{"exact name", "obsidian flames", "Obsidian Flames", "OBF", 1.0},
		{"exact code", "obf", "Obsidian Flames", "OBF", 1.0},
		{"containment", "obsidian", "Obsidian Flames", "OBF", 0.90},
		{"mismatch", "paldea evolved", "Obsidian Flames", "OBF", 0.30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateExpansion(tt.hint, tt.setName, tt.setCode))
		})
	}
}
