package seo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"promptdesk-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!doctype html>
<html><head>
<title>Learning the water cycle step by step</title>
<meta name="description" content="A short guide to evaporation, condensation and precipitation.">
<link rel="canonical" href="https://example.com/water-cycle">
<style>body { color: red }</style>
</head><body>
<h1>The water cycle</h1>
<h2>Evaporation</h2><p>The sun heats water.</p>
<h2>Condensation</h2><p>Vapour becomes clouds.</p>
<img src="a.png" alt="Clouds"><img src="b.png"><img src="c.png" alt=" ">
<a href="/rain">Rain</a>
<a href="https://www.example.com/snow">Snow</a>
<a href="https://other.org/">Other</a>
<a href="#top">Top</a>
<a href="mailto:me@example.com">Mail</a>
<script>var hidden = "not counted";</script>
</body></html>`

func TestParse(t *testing.T) {
	page, err := Parse(samplePage, "https://example.com/water-cycle")
	require.NoError(t, err)

	f := page.Facts
	assert.Equal(t, "Learning the water cycle step by step", f.Title)
	assert.Equal(t, "A short guide to evaporation, condensation and precipitation.", f.MetaDescription)
	assert.Equal(t, "https://example.com/water-cycle", f.Canonical)
	assert.Equal(t, 1, f.H1Count)
	assert.Equal(t, 2, f.H2Count)
	assert.Equal(t, 3, f.ImageCount)
	assert.Equal(t, 2, f.ImagesWithoutAlt)
	assert.Equal(t, 2, f.InternalLinks)
	assert.Equal(t, 1, f.ExternalLinks)
	assert.NotContains(t, page.Text, "hidden")
	assert.Contains(t, page.Text, "The sun heats water.")
	assert.Equal(t, len(strings.Fields(page.Text)), f.WordCount)
}

func TestPage_Excerpt(t *testing.T) {
	p := &Page{Text: "héllo world"}
	assert.Equal(t, "h", p.Excerpt(2))
	assert.Equal(t, "héllo world", p.Excerpt(100))
}

func TestScore_EmptyPage(t *testing.T) {
	r := Score(models.PageFacts{})
	// title 20, description 15, h1 15, h2 5, words 10, internal links 5
	assert.Equal(t, 30, r.Score)
	assert.Contains(t, r.Issues, "Missing <title>")
	assert.Equal(t, len(r.Issues), len(r.Recommendations))
	assert.Equal(t, models.SourceFallback, r.Source)
}

func TestScore_GoodPage(t *testing.T) {
	r := Score(models.PageFacts{
		URL:             "https://example.com",
		Title:           "A perfectly sized page title for SEO",
		MetaDescription: strings.Repeat("x", 100),
		Canonical:       "https://example.com",
		H1Count:         1,
		H2Count:         3,
		WordCount:       800,
		ImageCount:      2,
		InternalLinks:   4,
		HasRobotsTxt:    true,
		HasSitemap:      true,
	})
	assert.Equal(t, 100, r.Score)
	assert.Empty(t, r.Issues)
}

func TestScore_AltPenaltyCapped(t *testing.T) {
	base := Score(models.PageFacts{ImageCount: 20})
	worse := Score(models.PageFacts{ImageCount: 20, ImagesWithoutAlt: 20})
	assert.Equal(t, base.Score-10, worse.Score)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-5))
	assert.Equal(t, 100, Clamp(140))
	assert.Equal(t, 42, Clamp(42))
}

func TestValidateURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "example.com/page", "https://"} {
		_, err := ValidateURL(raw)
		assert.ErrorIs(t, err, ErrInvalidURL, raw)
	}
	u, err := ValidateURL(" https://example.com/a ")
	require.NoError(t, err)
	assert.Equal(t, "example.com", u.Host)
}

func TestFetcher_Fetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.UserAgent())
		_, _ = w.Write([]byte(samplePage))
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page, err := NewFetcher(srv.Client()).Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.True(t, page.Facts.HasRobotsTxt)
	assert.False(t, page.Facts.HasSitemap)
	assert.Equal(t, 1, page.Facts.H1Count)
	// the page's absolute links point at example.com, not the test server
	assert.Equal(t, 1, page.Facts.InternalLinks)
}

func TestFetcher_FetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	_, err := NewFetcher(nil).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchFailed))
}
