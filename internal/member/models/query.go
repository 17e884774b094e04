package models

import (
	"strings"
	"unicode"
)

// maxQueryLength bounds search input.
const maxQueryLength = 64

// NormalizeQuery trims a search query and reports whether it is usable.
func NormalizeQuery(q string) (string, bool) {
	q = strings.TrimSpace(q)
	if q == "" || len(q) > maxQueryLength {
		return "", false
	}
	return q, true
}

// NormalizeNationalID strips separators so "1.234.567-8" and "12345678"
// address the same member. Returns "" if anything but digits and separators
// remain.
func NormalizeNationalID(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == ' ':
		default:
			return ""
		}
	}
	return b.String()
}
