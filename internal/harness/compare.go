package harness

import (
	"strings"
	"unicode"
)

// Normalize drops every whitespace rune.
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Matches grades one test case: whitespace-insensitive, otherwise exact.
func Matches(expected, actual string) bool {
	return Normalize(expected) == Normalize(actual)
}
