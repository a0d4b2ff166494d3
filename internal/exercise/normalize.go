// Package exercise holds the lesson data shapes and the answer-checking
// utilities: normalization, fuzzy matching, sentence similarity and
// word-pair shuffling.
package exercise

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, folds diacritics ("café" -> "cafe"), drops
// punctuation and symbols, and collapses whitespace.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	folded = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			return ' '
		default:
			return unicode.ToLower(r)
		}
	}, folded)

	return strings.Join(strings.Fields(folded), " ")
}

// Words splits s into normalized words.
func Words(s string) []string {
	return strings.Fields(Normalize(s))
}
