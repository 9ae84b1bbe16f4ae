package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Fold normalises a place or amenity name for matching: case-folded,
// diacritics stripped, and the Azerbaijani letters without a decomposition
// mapped to their Latin base ("Xırdalan" ~ "xirdalan", "Şəki" ~ "seki").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = folder.String(out)
	return strings.TrimSpace(azReplacer.Replace(out))
}

var azReplacer = strings.NewReplacer("ı", "i", "ə", "e", "ğ", "g")

// MatchName reports whether name contains query after folding both.
func MatchName(name, query string) bool {
	return strings.Contains(Fold(name), Fold(query))
}
