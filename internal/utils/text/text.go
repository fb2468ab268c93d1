// Package text provides utilities for text processing shared across the
// composer, the dedup cache, and the poster: rune-aware counting,
// normalization for fingerprinting, and word-boundary truncation.
package text

import (
	"strings"
	"unicode"
)

// Ellipsis is appended to truncated post text.
const Ellipsis = "..."

// CountRunes counts the number of Unicode characters (runes) in the given
// text. The platform's character limit is rune-based, so byte length is
// never the right measure for post text that may contain emoji.
//
// Examples:
//
//	CountRunes("hello")   // 5
//	CountRunes("hello💀") // 6
func CountRunes(text string) int {
	return len([]rune(text))
}

// Normalize canonicalizes text for duplicate fingerprinting: case-folded
// and stripped of surrounding whitespace. Interior whitespace is preserved;
// the fingerprint treats two posts as identical only when the same words in
// the same shape survive normalization.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TruncateWords shortens s to at most max runes, cutting at the nearest
// preceding word boundary and appending an ellipsis marker. Text already
// within the limit is returned unchanged.
//
// The returned text is always at most max runes including the marker.
func TruncateWords(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	keep := max - len(Ellipsis)
	if keep <= 0 {
		return strings.TrimRightFunc(string(runes[:max]), unicode.IsSpace)
	}

	cut := string(runes[:keep])

	// Back off to the last word boundary so the marker never splits a word.
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > 0 {
		cut = cut[:idx]
	}
	cut = strings.TrimRightFunc(cut, unicode.IsSpace)

	return cut + Ellipsis
}
