// Package lostfound understands lost-and-found chat messages written in
// English, French or Arabic: it detects the language, maps known words to
// English and extracts what, where and which colour the user is talking about.
package lostfound

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents strips combining marks: é → e, أ → ا, and Arabic harakat.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

var lower = cases.Lower(language.Und)

// Normalize lowercases, folds accents and reduces s to single-space
// separated words of letters and digits.
func Normalize(s string) string {
	return strings.Join(Tokens(s), " ")
}

// Tokens splits the normalized form of s into words.
func Tokens(s string) []string {
	s = foldAccents(lower.String(s))
	// Arabic tatweel is a letter-class rune used only for stretching.
	s = strings.ReplaceAll(s, "ـ", "")
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

var title = cases.Title(language.English)

// displayName title-cases a canonical English name ("new york" → "New York").
func displayName(s string) string {
	return title.String(s)
}
