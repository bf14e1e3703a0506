package lostfound

import (
	"strings"

	"promptdesk-backend/internal/models"
)

// Intents reported by Classify.
const (
	IntentGreeting = "greeting"
	IntentHelp     = "help"
	IntentSearch   = "search"
	IntentQuestion = "question"
)

const arabicArticle = "ال"

// Translate maps the words of s to canonical English. Phrases of up to
// three words are matched longest first; unknown words pass through.
func Translate(s, lang string) []string {
	tokens := Tokens(s)
	tables := []phraseTable{enTable}
	switch lang {
	case LangFrench:
		tables = []phraseTable{frTable, enTable}
	case LangArabic:
		tables = []phraseTable{arTable, enTable}
	}

	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		n, repl := matchPhrase(tokens[i:], tables, lang == LangArabic)
		if n == 0 {
			out = append(out, tokens[i])
			i++
			continue
		}
		out = append(out, strings.Fields(repl)...)
		i += n
	}
	return out
}

func matchPhrase(tokens []string, tables []phraseTable, arabic bool) (int, string) {
	for n := min(maxPhraseWords, len(tokens)); n > 0; n-- {
		rest := strings.Join(tokens[1:n], " ")
		firsts := []string{tokens[0]}
		if arabic {
			firsts = arabicVariants(tokens[0])
		}
		for _, first := range firsts {
			phrase := first
			if rest != "" {
				phrase += " " + rest
			}
			for _, t := range tables {
				if repl, ok := t[phrase]; ok {
					return n, repl
				}
			}
		}
	}
	return 0, ""
}

// arabicVariants lists w followed by forms with the common attached
// particles removed: the conjunctions و and ف, the preposition ب, the
// article and the first-person possessive ي (restoring ة before it).
func arabicVariants(w string) []string {
	out := []string{w}
	seen := map[string]bool{w: true}
	add := func(s string) {
		if len([]rune(s)) >= 2 && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, prefix := range []string{"", "و", "ب", "ف"} {
		base, ok := strings.CutPrefix(w, prefix)
		if !ok {
			continue
		}
		for _, b := range []string{base, strings.TrimPrefix(base, arabicArticle)} {
			add(b)
			if stem, ok := strings.CutSuffix(b, "تي"); ok {
				add(stem + "ة")
			}
			add(strings.TrimSuffix(b, "ي"))
		}
	}
	return out
}

// findCity returns the first known city in the translated words.
func findCity(words []string) string {
	for i := range words {
		if i+1 < len(words) && cities[words[i]+" "+words[i+1]] {
			return words[i] + " " + words[i+1]
		}
		if cities[words[i]] {
			return words[i]
		}
	}
	return ""
}

func findItem(words []string) string {
	for _, w := range words {
		if _, ok := itemCategories[w]; ok {
			return w
		}
	}
	return ""
}

// IsSearchingForItems reports whether s names both a known city and an
// item, in any supported language.
func IsSearchingForItems(s string) bool {
	words := Translate(s, DetectLanguage(s))
	return findCity(words) != "" && findItem(words) != ""
}

// ParseQuery extracts what the user lost or found. Fields that could not be
// recognised stay empty.
func ParseQuery(s string) models.ItemQuery {
	words := Translate(s, DetectLanguage(s))
	q := models.ItemQuery{}
	if city := findCity(words); city != "" {
		q.City = displayName(city)
	}
	if item := findItem(words); item != "" {
		q.Item = item
		q.Category = itemCategories[item]
	}
	for _, w := range words {
		switch {
		case q.Color == "" && colors[w]:
			q.Color = w
		case q.Brand == "" && brands[w]:
			q.Brand = w
		case q.Type == "" && w == "lost":
			q.Type = models.ItemTypeLost
		case q.Type == "" && w == "found":
			q.Type = models.ItemTypeFound
		}
	}
	return q
}

// Classify picks the intent of a message. A search needs a city and an item;
// otherwise a bare greeting or a help request is recognised, and anything
// else is a free-form question.
func Classify(s string) string {
	words := Translate(s, DetectLanguage(s))
	if findCity(words) != "" && findItem(words) != "" {
		return IntentSearch
	}
	for _, w := range words {
		switch w {
		case "help":
			return IntentHelp
		}
	}
	for _, w := range words {
		switch w {
		case "hello", "hi", "hey", "thanks":
			return IntentGreeting
		}
	}
	// Mentions an item or a city but not both: ask for the missing part.
	if findCity(words) != "" || findItem(words) != "" {
		return IntentHelp
	}
	return IntentQuestion
}

// CanonicalCity maps a city as typed in a report onto the display form used
// by chat lookups, so "fès", "Fez" and "فاس" are stored alike. Unknown
// cities are returned trimmed.
func CanonicalCity(city string) string {
	words := Translate(city, DetectLanguage(city))
	if c := findCity(words); c != "" {
		return displayName(c)
	}
	return strings.TrimSpace(city)
}

// CategoryFor maps an item word in any supported language to its category,
// or returns "" if the word is unknown.
func CategoryFor(word string) string {
	item := findItem(Translate(word, DetectLanguage(word)))
	return itemCategories[item]
}

// CanonicalColor maps a colour in any supported language to its English
// name. Unknown colours are returned trimmed and lowercased.
// A single word carries no language markers, so French is tried as well.
func CanonicalColor(color string) string {
	for _, lang := range []string{DetectLanguage(color), LangFrench} {
		for _, w := range Translate(color, lang) {
			if colors[w] {
				return w
			}
		}
	}
	return strings.ToLower(strings.TrimSpace(color))
}
