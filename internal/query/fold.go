package query

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s with diacritics removed and case folded, so that "Prova
// Final", "prova final" and "PRÓVA FINAL" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// containsFolded reports whether needle occurs in haystack ignoring case and
// diacritics. An empty needle matches everything.
func containsFolded(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}
