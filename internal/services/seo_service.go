package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"promptdesk-backend/internal/jsonrepair"
	"promptdesk-backend/internal/llm"
	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/seo"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxSEOContentBytes = 512 << 10
	seoExcerptBytes    = 3000
)

// SEOService analyses a page by URL or by pasted content.
type SEOService struct {
	gens    GeneratorSource
	fetcher *seo.Fetcher
	logger  *zap.Logger
}

func NewSEOService(gens GeneratorSource, fetcher *seo.Fetcher, logger *zap.Logger) *SEOService {
	if fetcher == nil {
		fetcher = seo.NewFetcher(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SEOService{gens: gens, fetcher: fetcher, logger: logger.Named("seo")}
}

// Analyze scores the page heuristically and asks the provider for a
// review of the facts. The heuristic report is returned when the provider
// fails.
func (s *SEOService) Analyze(ctx context.Context, orgID uuid.UUID, req models.SEOAnalyzeRequest) (*models.SEOReport, error) {
	page, err := s.page(ctx, req)
	if err != nil {
		return nil, err
	}
	heuristic := seo.Score(page.Facts)

	out, err := generateLive(ctx, s.gens.For(ctx, orgID), llm.Request{
		System:      "You are an SEO auditor. Reply with JSON only.",
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: seoPrompt(page, heuristic.Score)}},
		JSON:        true,
		Temperature: 0.2,
	})
	if err == nil {
		var report *models.SEOReport
		if report, err = parseSEOReport(out.Text, heuristic); err == nil {
			report.Provider = out.Provider
			return report, nil
		}
	}
	s.logger.Warn("SEO analysis failed, returning heuristic report", zap.Error(err))
	return &heuristic, nil
}

func (s *SEOService) page(ctx context.Context, req models.SEOAnalyzeRequest) (*seo.Page, error) {
	if strings.TrimSpace(req.URL) != "" {
		page, err := s.fetcher.Fetch(ctx, req.URL)
		switch {
		case errors.Is(err, seo.ErrInvalidURL):
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		case err != nil:
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		return page, nil
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: url or content is required", ErrValidation)
	}
	if len(req.Content) > maxSEOContentBytes {
		return nil, fmt.Errorf("%w: content exceeds %d bytes", ErrPayloadTooLarge, maxSEOContentBytes)
	}
	page, err := seo.Parse(req.Content, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if t := strings.TrimSpace(req.Title); t != "" && page.Facts.Title == "" {
		page.Facts.Title = t
	}
	return page, nil
}

func seoPrompt(page *seo.Page, heuristic int) string {
	facts, _ := json.Marshal(page.Facts)
	var b strings.Builder
	fmt.Fprintf(&b, "Page facts: %s\nHeuristic score: %d\n\nContent excerpt:\n%s\n\n", facts, heuristic, page.Excerpt(seoExcerptBytes))
	b.WriteString(`Review the page for search engines. Reply with a JSON object with the keys "score" (0-100), "summary", "strengths", "issues" and "recommendations" (arrays of strings).`)
	return b.String()
}

type rawSEOReport struct {
	Score           *float64 `json:"score"`
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// parseSEOReport fills the gaps of a provider review from the heuristic
// report. A reply without score and summary is rejected.
func parseSEOReport(text string, heuristic models.SEOReport) (*models.SEOReport, error) {
	var raw rawSEOReport
	if err := jsonrepair.Decode(text, &raw); err != nil {
		return nil, err
	}
	if raw.Score == nil && strings.TrimSpace(raw.Summary) == "" {
		return nil, errors.New("review has neither score nor summary")
	}
	report := heuristic
	report.Source = models.SourceLLM
	if raw.Score != nil {
		report.Score = seo.Clamp(int(math.Round(*raw.Score)))
	}
	if summary := strings.TrimSpace(raw.Summary); summary != "" {
		report.Summary = summary
	}
	if list := nonEmpty(raw.Strengths); len(list) > 0 {
		report.Strengths = list
	}
	if list := nonEmpty(raw.Issues); len(list) > 0 {
		report.Issues = list
	}
	if list := nonEmpty(raw.Recommendations); len(list) > 0 {
		report.Recommendations = list
	}
	return &report, nil
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
