// Package textfilter implements the list search used by every resource:
// a case-insensitive substring match over fields of rows already loaded for
// the owner.
package textfilter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize applies Unicode case folding on the NFC form of s, so composed
// and decomposed spellings of the same name compare equal.
func Normalize(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// Matches reports whether query occurs in any of the fields. An empty or
// blank query matches everything.
func Matches(query string, fields ...string) bool {
	q := Normalize(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(Normalize(f), q) {
			return true
		}
	}
	return false
}

// Filter keeps the items for which any field returned by fields contains
// query. Order is preserved. The input slice is not modified.
func Filter[T any](items []T, query string, fields func(T) []string) []T {
	q := Normalize(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, f := range fields(it) {
			if strings.Contains(Normalize(f), q) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}
