package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"promptdesk-backend/internal/jsonrepair"
	"promptdesk-backend/internal/llm"
	"promptdesk-backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxPromptBytes   = 8 << 10
	maxGenerateToken = 8192
)

// GenerateService proxies free-form prompts. It has no fallback: a failed
// chain is reported to the caller.
type GenerateService struct {
	gens   GeneratorSource
	logger *zap.Logger
}

func NewGenerateService(gens GeneratorSource, logger *zap.Logger) *GenerateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerateService{gens: gens, logger: logger.Named("generate")}
}

func (s *GenerateService) Generate(ctx context.Context, orgID uuid.UUID, req models.GenerateRequest) (*models.GenerateResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrValidation)
	}
	if len(req.Prompt) > maxPromptBytes {
		return nil, fmt.Errorf("%w: prompt exceeds %d bytes", ErrPayloadTooLarge, maxPromptBytes)
	}
	if req.Temperature < 0 || req.Temperature > 2 {
		return nil, fmt.Errorf("%w: temperature must be between 0 and 2", ErrValidation)
	}
	if req.MaxTokens < 0 || req.MaxTokens > maxGenerateToken {
		return nil, fmt.Errorf("%w: maxTokens must be between 0 and %d", ErrValidation, maxGenerateToken)
	}

	out, err := generateLive(ctx, s.gens.For(ctx, orgID), llm.Request{
		System:      strings.TrimSpace(req.System),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		JSON:        req.JSON,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		s.logger.Warn("Generation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	resp := &models.GenerateResponse{Provider: out.Provider, Model: out.Model, Cached: out.Cached}
	if !req.JSON {
		resp.Text = out.Text
		return resp, nil
	}
	repaired, err := jsonrepair.Repair(out.Text)
	if err != nil {
		s.logger.Warn("Provider reply is not JSON", zap.String("provider", out.Provider), zap.Error(err))
		return nil, fmt.Errorf("%w: provider reply is not valid JSON: %w", ErrUpstream, err)
	}
	resp.Data = json.RawMessage(repaired)
	return resp, nil
}
