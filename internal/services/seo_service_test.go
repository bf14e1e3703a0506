package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/seo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seoPage = `<html><head><title>Tide pools</title></head>
<body><h1>Tide pools</h1><p>Creatures of the shore.</p><img src="crab.png"></body></html>`

func TestSEOService_ContentHeuristicFallback(t *testing.T) {
	svc := NewSEOService(source(failingGen()), nil, nil)
	report, err := svc.Analyze(context.Background(), testOrg, models.SEOAnalyzeRequest{Content: seoPage, Title: "ignored"})
	require.NoError(t, err)

	page, err := seo.Parse(seoPage, "")
	require.NoError(t, err)
	want := seo.Score(page.Facts)
	assert.Equal(t, want, *report)
	assert.Equal(t, models.SourceFallback, report.Source)
	assert.Equal(t, "Tide pools", report.Facts.Title)
	assert.Equal(t, 1, report.Facts.ImagesWithoutAlt)
}

func TestSEOService_TitleFromRequest(t *testing.T) {
	svc := NewSEOService(source(failingGen()), nil, nil)
	report, err := svc.Analyze(context.Background(), testOrg, models.SEOAnalyzeRequest{Content: "<p>just text</p>", Title: "My post"})
	require.NoError(t, err)
	assert.Equal(t, "My post", report.Facts.Title)
}

func TestSEOService_LLMReviewMerged(t *testing.T) {
	gen := replying(`{"score": 71.6, "summary": "Decent page.", "issues": ["Add a meta description", " "]}`)
	svc := NewSEOService(source(gen), nil, nil)
	report, err := svc.Analyze(context.Background(), testOrg, models.SEOAnalyzeRequest{Content: seoPage})
	require.NoError(t, err)

	page, _ := seo.Parse(seoPage, "")
	heuristic := seo.Score(page.Facts)

	assert.Equal(t, models.SourceLLM, report.Source)
	assert.Equal(t, "fake", report.Provider)
	assert.Equal(t, 72, report.Score)
	assert.Equal(t, "Decent page.", report.Summary)
	assert.Equal(t, []string{"Add a meta description"}, report.Issues)
	assert.Equal(t, heuristic.Strengths, report.Strengths)
	assert.Equal(t, heuristic.Recommendations, report.Recommendations)

	req := gen.last()
	assert.True(t, req.JSON)
	assert.Contains(t, req.LastUserMessage(), `"title":"Tide pools"`)
	assert.Contains(t, req.LastUserMessage(), "Creatures of the shore.")
}

func TestParseSEOReport(t *testing.T) {
	base := models.SEOReport{Score: 40, Summary: "base", Source: models.SourceFallback}

	_, err := parseSEOReport(`{"issues": ["x"]}`, base)
	assert.Error(t, err)

	r, err := parseSEOReport(`{"score": 250}`, base)
	require.NoError(t, err)
	assert.Equal(t, 100, r.Score)
	assert.Equal(t, "base", r.Summary)

	r, err = parseSEOReport(`{"score": -3, "summary": "bad"}`, base)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Score)
}

func TestSEOService_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(seoPage))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	svc := NewSEOService(source(failingGen()), seo.NewFetcher(srv.Client()), nil)
	report, err := svc.Analyze(context.Background(), testOrg, models.SEOAnalyzeRequest{URL: srv.URL + "/"})
	require.NoError(t, err)
	assert.Equal(t, "Tide pools", report.Facts.Title)
	assert.False(t, report.Facts.HasRobotsTxt)

	_, err = svc.Analyze(context.Background(), testOrg, models.SEOAnalyzeRequest{URL: srv.URL + "/missing"})
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = svc.Analyze(context.Background(), testOrg, models.SEOAnalyzeRequest{URL: "ftp://example.com"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSEOService_Validation(t *testing.T) {
	svc := NewSEOService(source(failingGen()), nil, nil)
	_, err := svc.Analyze(context.Background(), testOrg, models.SEOAnalyzeRequest{})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Analyze(context.Background(), testOrg, models.SEOAnalyzeRequest{Content: strings.Repeat("a", maxSEOContentBytes+1)})
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}
