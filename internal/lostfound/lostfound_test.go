package lostfound

import (
	"testing"
	"time"

	"promptdesk-backend/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "j ai perdu mon telephone a paris", Normalize("J'ai perdu mon Téléphone à PARIS!"))
	assert.Equal(t, "ou est ma cle", Normalize("  Où est   ma clé ? "))
	assert.Equal(t, "اسود", Normalize("أسود"))
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"I lost my wallet in London", LangEnglish},
		{"J'ai perdu mon portefeuille", LangFrench},
		{"où est mon sac", LangFrench},
		{"perdu portefeuille Paris", LangFrench},
		{"فقدت هاتفي في الرباط", LangArabic},
		{"hello فاس", LangArabic},
		{"", LangEnglish},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectLanguage(tt.in), tt.in)
	}
}

func TestTranslate(t *testing.T) {
	assert.Equal(t, []string{"j", "ai", "lost", "mon", "backpack", "blue", "au", "cairo"},
		Translate("J'ai perdu mon sac à dos bleu au Caire", LangFrench))
	assert.Equal(t, []string{"lost", "phone", "في", "rabat"}, Translate("فقدت هاتفي في الرباط", LangArabic))
	assert.Equal(t, []string{"found", "phone", "apple"}, Translate("found iPhone", LangEnglish))
	assert.Equal(t, []string{"lost", "wallet"}, Translate("ضاعت محفظتي", LangArabic))
	assert.Equal(t, []string{"keys", "casablanca"}, Translate("مفاتيح بالدار البيضاء", LangArabic))
}

func TestIsSearchingForItems(t *testing.T) {
	assert.True(t, IsSearchingForItems("I lost my black phone in Paris"))
	assert.True(t, IsSearchingForItems("J'ai trouvé des clés à Marrakech"))
	assert.True(t, IsSearchingForItems("ضاعت محفظتي في مراكش"))
	assert.True(t, IsSearchingForItems("lost laptop New York"))
	assert.False(t, IsSearchingForItems("I lost my phone"))
	assert.False(t, IsSearchingForItems("anything in Paris?"))
	assert.False(t, IsSearchingForItems("hello"))
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		in   string
		want models.ItemQuery
	}{
		{
			in:   "I lost my black Samsung phone in Paris",
			want: models.ItemQuery{City: "Paris", Category: "electronics", Item: "phone", Color: "black", Brand: "samsung", Type: models.ItemTypeLost},
		},
		{
			in:   "J'ai trouvé un portefeuille marron à Fès",
			want: models.ItemQuery{City: "Fes", Category: "accessories", Item: "wallet", Color: "brown", Type: models.ItemTypeFound},
		},
		{
			in:   "وجدت مفاتيح في طنجة",
			want: models.ItemQuery{City: "Tangier", Category: "keys", Item: "keys", Type: models.ItemTypeFound},
		},
		{
			in:   "watch new york",
			want: models.ItemQuery{City: "New York", Category: "accessories", Item: "watch"},
		},
		{
			in:   "nothing useful",
			want: models.ItemQuery{},
		},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ParseQuery(tt.in)); diff != "" {
			t.Errorf("ParseQuery(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, IntentSearch, Classify("lost my keys in Rabat"))
	assert.Equal(t, IntentGreeting, Classify("Bonjour"))
	assert.Equal(t, IntentGreeting, Classify("مرحبا"))
	assert.Equal(t, IntentHelp, Classify("help me please"))
	assert.Equal(t, IntentHelp, Classify("I lost my phone"))
	assert.Equal(t, IntentQuestion, Classify("what are your opening hours?"))
}

func TestCanonicalCity(t *testing.T) {
	assert.Equal(t, "Fes", CanonicalCity("Fès"))
	assert.Equal(t, "Fes", CanonicalCity("fez"))
	assert.Equal(t, "Rabat", CanonicalCity("الرباط"))
	assert.Equal(t, "Springfield", CanonicalCity(" Springfield "))
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, "electronics", CategoryFor("téléphone"))
	assert.Equal(t, "documents", CategoryFor("passport"))
	assert.Equal(t, "", CategoryFor("spaceship"))
}

func TestCanonicalColor(t *testing.T) {
	assert.Equal(t, "black", CanonicalColor("Noir"))
	assert.Equal(t, "black", CanonicalColor("أسود"))
	assert.Equal(t, "teal", CanonicalColor(" Teal "))
}

func TestSearchReply(t *testing.T) {
	q := models.ItemQuery{City: "Paris", Item: "phone", Color: "black"}
	assert.Equal(t,
		"There are no matching reports for a black phone in Paris yet. Please check again later or report your item so others can contact you.",
		SearchReply(LangEnglish, q, nil))

	items := []models.LostItem{{
		Category:    "electronics",
		Color:       "black",
		Brand:       "Samsung",
		Type:        models.ItemTypeFound,
		Description: "near the Louvre",
		PostDate:    time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
	}}
	assert.Equal(t,
		"J'ai trouvé 1 signalement(s) correspondant(s) à Paris :\n- electronics black Samsung (trouvé, 2024-05-02): near the Louvre",
		SearchReply(LangFrench, q, items))

	assert.Equal(t, replies[LangEnglish].greeting, GreetingReply("de"))
	assert.NotEqual(t, HelpReply(LangArabic), HelpReply(LangEnglish))
}
