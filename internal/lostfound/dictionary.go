package lostfound

import "sort"

// Canonical English item words and the category they are filed under.
var itemCategories = map[string]string{
	"phone":      "electronics",
	"laptop":     "electronics",
	"tablet":     "electronics",
	"headphones": "electronics",
	"camera":     "electronics",
	"wallet":     "accessories",
	"watch":      "accessories",
	"glasses":    "accessories",
	"umbrella":   "accessories",
	"keys":       "keys",
	"bag":        "bags",
	"backpack":   "bags",
	"suitcase":   "bags",
	"passport":   "documents",
	"card":       "documents",
	"license":    "documents",
	"ring":       "jewelry",
	"necklace":   "jewelry",
	"bracelet":   "jewelry",
	"jacket":     "clothing",
	"coat":       "clothing",
	"bicycle":    "vehicles",
	"dog":        "pets",
	"cat":        "pets",
}

var colors = map[string]bool{
	"black": true, "white": true, "red": true, "blue": true, "green": true,
	"yellow": true, "grey": true, "brown": true, "pink": true, "purple": true,
	"orange": true, "silver": true, "gold": true, "beige": true,
}

var brands = map[string]bool{
	"samsung": true, "apple": true, "huawei": true, "xiaomi": true, "nokia": true,
	"oppo": true, "dell": true, "hp": true, "lenovo": true, "asus": true,
	"rolex": true, "casio": true, "rayban": true, "gucci": true, "nike": true,
	"adidas": true, "sony": true,
}

// Known cities in canonical English form.
var cities = map[string]bool{
	"paris": true, "lyon": true, "marseille": true, "toulouse": true,
	"lille": true, "bordeaux": true, "nantes": true, "strasbourg": true,
	"casablanca": true, "rabat": true, "marrakech": true, "fes": true,
	"tangier": true, "agadir": true, "tunis": true, "algiers": true, "oran": true,
	"cairo": true, "london": true, "new york": true, "montreal": true,
	"brussels": true, "geneva": true, "dubai": true,
}

// English synonyms and spellings that map onto canonical words.
var enToCanonical = map[string]string{
	"mobile":      "phone",
	"cellphone":   "phone",
	"smartphone":  "phone",
	"iphone":      "phone apple",
	"galaxy":      "phone samsung",
	"computer":    "laptop",
	"notebook":    "laptop",
	"ipad":        "tablet apple",
	"purse":       "wallet",
	"key":         "keys",
	"handbag":     "bag",
	"sunglasses":  "glasses",
	"id":          "card",
	"gray":        "grey",
	"bike":        "bicycle",
	"ray ban":     "rayban",
	"marrakesh":   "marrakech",
	"fez":         "fes",
	"tanger":      "tangier",
	"nyc":         "new york",
	"lost":        "lost",
	"misplaced":   "lost",
	"found":       "found",
	"picked up":   "found",
	"earphones":   "headphones",
	"airpods":     "headphones apple",
	"credit card": "card",
}

var frToEn = map[string]string{
	"telephone":      "phone",
	"portable":       "phone",
	"mobile":         "phone",
	"ordinateur":     "laptop",
	"tablette":       "tablet",
	"ecouteurs":      "headphones",
	"appareil photo": "camera",
	"portefeuille":   "wallet",
	"porte monnaie":  "wallet",
	"montre":         "watch",
	"lunettes":       "glasses",
	"parapluie":      "umbrella",
	"cle":            "keys",
	"cles":           "keys",
	"clef":           "keys",
	"clefs":          "keys",
	"sac":            "bag",
	"sac a dos":      "backpack",
	"valise":         "suitcase",
	"passeport":      "passport",
	"carte":          "card",
	"permis":         "license",
	"bague":          "ring",
	"collier":        "necklace",
	"bracelet":       "bracelet",
	"veste":          "jacket",
	"manteau":        "coat",
	"velo":           "bicycle",
	"chien":          "dog",
	"chat":           "cat",
	"noir":           "black",
	"noire":          "black",
	"blanc":          "white",
	"blanche":        "white",
	"rouge":          "red",
	"bleu":           "blue",
	"bleue":          "blue",
	"vert":           "green",
	"verte":          "green",
	"jaune":          "yellow",
	"gris":           "grey",
	"grise":          "grey",
	"marron":         "brown",
	"rose":           "pink",
	"violet":         "purple",
	"argent":         "silver",
	"argente":        "silver",
	"dore":           "gold",
	"perdu":          "lost",
	"perdue":         "lost",
	"egare":          "lost",
	"trouve":         "found",
	"trouvee":        "found",
	"ramasse":        "found",
	"alger":          "algiers",
	"le caire":       "cairo",
	"caire":          "cairo",
	"londres":        "london",
	"bruxelles":      "brussels",
	"geneve":         "geneva",
	"tanger":         "tangier",
	"bonjour":        "hello",
	"salut":          "hello",
	"bonsoir":        "hello",
	"aide":           "help",
	"aidez":          "help",
	"merci":          "thanks",
}

// Arabic keys are written as users type them; they are folded like input
// when the lookup tables are built.
var arToEn = map[string]string{
	"هاتف":          "phone",
	"تلفون":         "phone",
	"جوال":          "phone",
	"موبايل":        "phone",
	"حاسوب":         "laptop",
	"كمبيوتر":       "laptop",
	"لابتوب":        "laptop",
	"محفظة":         "wallet",
	"ساعة":          "watch",
	"نظارات":        "glasses",
	"نظارة":         "glasses",
	"مفتاح":         "keys",
	"مفاتيح":        "keys",
	"حقيبة":         "bag",
	"شنطة":          "bag",
	"جواز":          "passport",
	"جواز سفر":      "passport",
	"بطاقة":         "card",
	"خاتم":          "ring",
	"قلادة":         "necklace",
	"سوار":          "bracelet",
	"دراجة":         "bicycle",
	"كلب":           "dog",
	"قطة":           "cat",
	"أسود":          "black",
	"سوداء":         "black",
	"أبيض":          "white",
	"بيضاء":         "white",
	"أحمر":          "red",
	"حمراء":         "red",
	"أزرق":          "blue",
	"زرقاء":         "blue",
	"أخضر":          "green",
	"خضراء":         "green",
	"أصفر":          "yellow",
	"رمادي":         "grey",
	"بني":           "brown",
	"وردي":          "pink",
	"فضي":           "silver",
	"ذهبي":          "gold",
	"ضاع":           "lost",
	"ضاعت":          "lost",
	"فقدت":          "lost",
	"أضعت":          "lost",
	"مفقود":         "lost",
	"وجدت":          "found",
	"لقيت":          "found",
	"عثرت":          "found",
	"الدار البيضاء": "casablanca",
	"كازابلانكا":    "casablanca",
	"الرباط":        "rabat",
	"مراكش":         "marrakech",
	"فاس":           "fes",
	"طنجة":          "tangier",
	"أكادير":        "agadir",
	"تونس":          "tunis",
	"الجزائر":       "algiers",
	"وهران":         "oran",
	"القاهرة":       "cairo",
	"باريس":         "paris",
	"لندن":          "london",
	"دبي":           "dubai",
	"مرحبا":         "hello",
	"السلام عليكم":  "hello",
	"سلام":          "hello",
	"مساعدة":        "help",
	"ساعدني":        "help",
	"شكرا":          "thanks",
}

// phraseTable maps normalized phrases of up to maxPhraseWords words to
// their English replacement.
type phraseTable map[string]string

const maxPhraseWords = 3

func buildTable(src map[string]string) phraseTable {
	t := make(phraseTable, len(src))
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	// Deterministic winner when two spellings fold to the same key.
	sort.Strings(keys)
	for _, k := range keys {
		nk := Normalize(k)
		if _, dup := t[nk]; !dup {
			t[nk] = src[k]
		}
	}
	return t
}

var (
	enTable = buildTable(enToCanonical)
	frTable = buildTable(frToEn)
	arTable = buildTable(arToEn)
)
