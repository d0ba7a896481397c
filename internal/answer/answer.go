// Package answer grades free-text answers against a card side that may
// hold several accepted spellings separated by "|".
package answer

import "strings"

// VariantSeparator separates accepted spellings inside one card side.
const VariantSeparator = "|"

// IsCorrect compares the learner's input against the expected value.
// Returns true if the input matches any accepted variant.
//
// Normalization rules:
// - Whitespace is trimmed on both sides
// - Empty input never matches
// - Comparison is case-insensitive (Unicode simple folding)
func IsCorrect(expected, actual string) bool {
	actual = strings.TrimSpace(actual)
	if actual == "" {
		return false
	}
	for _, v := range Variants(expected) {
		if strings.EqualFold(v, actual) {
			return true
		}
	}
	return false
}

// Variants splits expected into trimmed, non-empty variants.
func Variants(expected string) []string {
	parts := strings.Split(expected, VariantSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Primary returns the first accepted variant, the one revealed to the
// learner after a wrong answer.
func Primary(expected string) string {
	if vs := Variants(expected); len(vs) > 0 {
		return vs[0]
	}
	return strings.TrimSpace(expected)
}
