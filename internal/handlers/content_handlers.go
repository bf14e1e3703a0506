package handlers

import (
	"context"
	"net/http"

	"promptdesk-backend/internal/models"
	"promptdesk-backend/pkg/httputil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GenerateService interface {
	Generate(ctx context.Context, orgID uuid.UUID, req models.GenerateRequest) (*models.GenerateResponse, error)
}

type RecommendService interface {
	Score(ctx context.Context, orgID uuid.UUID, req models.RecommendRequest) (*models.RecommendResponse, error)
}

type SEOService interface {
	Analyze(ctx context.Context, orgID uuid.UUID, req models.SEOAnalyzeRequest) (*models.SEOReport, error)
}

// ContentHandlers serves free text generation, recommendation scoring and
// SEO analysis.
type ContentHandlers struct {
	generate  GenerateService
	recommend RecommendService
	seo       SEOService
	logger    *zap.Logger
}

func NewContentHandlers(gen GenerateService, rec RecommendService, seo SEOService, logger *zap.Logger) *ContentHandlers {
	return &ContentHandlers{generate: gen, recommend: rec, seo: seo, logger: nopIfNil(logger).Named("content_handler")}
}

// HandleGenerate handles POST /v1/generate. It has no fallback: a failed
// chain is a 502.
func (h *ContentHandlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}
	var req models.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.generate.Generate(r.Context(), orgID, req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Text generation failed")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleScoreRecommendations handles POST /v1/recommendations/score.
func (h *ContentHandlers) HandleScoreRecommendations(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}
	var req models.RecommendRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.recommend.Score(r.Context(), orgID, req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to score recommendations")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleAnalyzeSEO handles POST /v1/seo/analyze.
func (h *ContentHandlers) HandleAnalyzeSEO(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}
	var req models.SEOAnalyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.seo.Analyze(r.Context(), orgID, req)
	if err != nil {
		respondServiceError(w, h.logger, err, "SEO analysis failed")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, report)
}
