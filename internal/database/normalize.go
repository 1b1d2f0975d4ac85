package database

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lowercases a name and strips diacritics so that searches for
// "Jose" find "José".
func NormalizeName(s string) string {
	out, _, err := transform.String(stripDiacritics, s)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// MatchesSearch reports whether the employee's name or email contains the
// search term, diacritics-insensitive.
func (e *Employee) MatchesSearch(term string) bool {
	t := NormalizeName(term)
	if t == "" {
		return true
	}
	return strings.Contains(NormalizeName(e.Name), t) ||
		strings.Contains(NormalizeName(e.Email), t)
}
