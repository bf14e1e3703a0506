package lostfound

import (
	"strings"
	"unicode"
)

// Supported reply languages.
const (
	LangEnglish = "en"
	LangFrench  = "fr"
	LangArabic  = "ar"
)

// Words that almost never appear in English text.
var frenchMarkers = map[string]bool{
	"je": true, "j": true, "ai": true, "mon": true, "ma": true, "mes": true,
	"le": true, "la": true, "les": true, "une": true, "des": true, "du": true,
	"et": true, "est": true, "suis": true, "vous": true, "votre": true,
	"avec": true, "dans": true, "pour": true, "sur": true, "quel": true,
	"quelle": true, "ou": true, "comment": true, "pourquoi": true,
	"bonjour": true, "bonsoir": true, "salut": true, "merci": true,
	"perdu": true, "perdue": true, "trouve": true, "trouvee": true,
	"aide": true, "aidez": true, "moi": true, "svp": true,
}

const frenchAccents = "éèêëàâçùûîïôœ"

// DetectLanguage returns LangArabic if s contains Arabic script, LangFrench
// if it has French accents or French function words, else LangEnglish.
func DetectLanguage(s string) string {
	for _, r := range s {
		if unicode.Is(unicode.Arabic, r) {
			return LangArabic
		}
	}
	if strings.ContainsAny(strings.ToLower(s), frenchAccents) {
		return LangFrench
	}
	for _, tok := range Tokens(s) {
		if frenchMarkers[tok] {
			return LangFrench
		}
	}
	return LangEnglish
}
