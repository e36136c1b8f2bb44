// Package strings provides string-slice helpers for request normalization.
package strings

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DedupeAndTrim trims each element and drops empties and repeats, keeping first-seen order.
// Works for any string-based key type so typed ids can be normalized without conversion.
//
//	DedupeAndTrim([]string{"  a ", "b", "a", ""}) // []string{"a", "b"}
func DedupeAndTrim[S ~string](values []S) []S {
	if len(values) == 0 {
		return values
	}

	seen := make(map[S]struct{}, len(values))
	result := make([]S, 0, len(values))
	for _, v := range values {
		trimmed := S(strings.TrimSpace(string(v)))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// Set builds a membership set from values.
func Set[S ~string](values []S) map[S]struct{} {
	set := make(map[S]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// ContainsFold reports whether substr is within s under simple Unicode case
// folding, the same equivalence strings.EqualFold uses. An empty substr always
// matches.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	for i := range s {
		if hasPrefixFold(s[i:], substr) {
			return true
		}
	}
	return false
}

func hasPrefixFold(s, prefix string) bool {
	for _, want := range prefix {
		got, size := utf8.DecodeRuneInString(s)
		if size == 0 || !equalFoldRune(got, want) {
			return false
		}
		s = s[size:]
	}
	return true
}

func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}
