// Package strings normalizes free-form list input such as subjects and
// teaching languages.
package strings

import (
	"strings"
	"unicode/utf8"
)

// CleanList trims each entry, drops blanks, and removes case-insensitive
// duplicates. The first spelling of a duplicate wins and order is preserved.
//
//	CleanList([]string{"  Math ", "physics", "math", ""})
//	// []string{"Math", "physics"}
func CleanList(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.Join(strings.Fields(v), " ")
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// LongestRunes returns the rune length of the longest entry.
func LongestRunes(values []string) int {
	longest := 0
	for _, v := range values {
		if n := utf8.RuneCountInString(v); n > longest {
			longest = n
		}
	}
	return longest
}
