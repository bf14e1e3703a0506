package lostfound

import (
	"fmt"
	"strings"

	"promptdesk-backend/internal/models"
)

type replySet struct {
	greeting string
	help     string
	// results takes the match count and the city.
	results string
	// none takes the item and the city.
	none     string
	fallback string
	lost     string
	found    string
}

var replies = map[string]replySet{
	LangEnglish: {
		greeting: "Hello! I can help you find lost items or report something you found. Tell me what it is and in which city, for example: \"I lost a black phone in Paris\".",
		help:     "Please tell me both the item and the city, for example: \"I lost a black phone in Paris\".",
		results:  "I found %d matching report(s) in %s:",
		none:     "There are no matching reports for a %s in %s yet. Please check again later or report your item so others can contact you.",
		fallback: "I can only help with lost and found items. Tell me what you lost or found and in which city.",
		lost:     "lost",
		found:    "found",
	},
	LangFrench: {
		greeting: "Bonjour ! Je peux vous aider à retrouver un objet perdu ou à signaler un objet trouvé. Dites-moi de quoi il s'agit et dans quelle ville, par exemple : « J'ai perdu un téléphone noir à Paris ».",
		help:     "Merci de préciser l'objet et la ville, par exemple : « J'ai perdu un téléphone noir à Paris ».",
		results:  "J'ai trouvé %d signalement(s) correspondant(s) à %s :",
		none:     "Aucun signalement ne correspond à « %s » à %s pour le moment. Revenez plus tard ou signalez votre objet pour que l'on puisse vous contacter.",
		fallback: "Je ne peux vous aider que pour les objets perdus ou trouvés. Dites-moi ce que vous avez perdu ou trouvé et dans quelle ville.",
		lost:     "perdu",
		found:    "trouvé",
	},
	LangArabic: {
		greeting: "مرحبا! يمكنني مساعدتك في العثور على الأشياء المفقودة أو الإبلاغ عن شيء وجدته. أخبرني ما هو وفي أي مدينة، مثلا: \"فقدت هاتفا أسود في الرباط\".",
		help:     "من فضلك أخبرني بالشيء والمدينة، مثلا: \"فقدت هاتفا أسود في الرباط\".",
		results:  "وجدت %d بلاغ(ات) مطابقة في %s:",
		none:     "لا توجد بلاغات مطابقة عن %s في %s حاليا. يرجى المحاولة لاحقا أو الإبلاغ عن غرضك ليتمكن الآخرون من التواصل معك.",
		fallback: "يمكنني المساعدة فقط في الأشياء المفقودة والموجودة. أخبرني ماذا فقدت أو وجدت وفي أي مدينة.",
		lost:     "مفقود",
		found:    "موجود",
	},
}

func repliesFor(lang string) replySet {
	if r, ok := replies[lang]; ok {
		return r
	}
	return replies[LangEnglish]
}

// GreetingReply welcomes the user in lang.
func GreetingReply(lang string) string { return repliesFor(lang).greeting }

// HelpReply asks for the item and the city in lang.
func HelpReply(lang string) string { return repliesFor(lang).help }

// FallbackReply is used when a free-form question cannot be answered.
func FallbackReply(lang string) string { return repliesFor(lang).fallback }

// SearchReply lists matching items, newest first, or says there are none.
func SearchReply(lang string, q models.ItemQuery, items []models.LostItem) string {
	r := repliesFor(lang)
	what := q.Item
	if q.Color != "" {
		what = q.Color + " " + what
	}
	if len(items) == 0 {
		return fmt.Sprintf(r.none, what, q.City)
	}

	var b strings.Builder
	fmt.Fprintf(&b, r.results, len(items), q.City)
	for _, it := range items {
		typ := r.lost
		if it.Type == models.ItemTypeFound {
			typ = r.found
		}
		b.WriteString("\n- ")
		b.WriteString(it.Category)
		for _, s := range []string{it.Color, it.Brand, it.Model} {
			if s != "" {
				b.WriteString(" ")
				b.WriteString(s)
			}
		}
		fmt.Fprintf(&b, " (%s, %s): %s", typ, it.PostDate.Format("2006-01-02"), it.Description)
	}
	return b.String()
}
