package services

import (
	"context"
	"errors"
	"fmt"

	"promptdesk-backend/internal/crypto"
	"promptdesk-backend/internal/integrations"
	"promptdesk-backend/internal/llm"
	"promptdesk-backend/internal/models"
	integration_models "promptdesk-backend/internal/models/integrations"
	"promptdesk-backend/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GeneratorSource picks the generator a request of an organization runs on.
type GeneratorSource interface {
	For(ctx context.Context, orgID uuid.UUID) llm.Generator
}

// StaticSource serves every organization with the same generator.
type StaticSource struct {
	Generator llm.Generator
}

func (s StaticSource) For(context.Context, uuid.UUID) llm.Generator { return s.Generator }

var llmServiceTypes = []string{
	string(models.ServiceTypeOpenAI),
	string(models.ServiceTypeGemini),
	string(models.ServiceTypeDeepSeek),
	string(models.ServiceTypeOllama),
}

// ChainResolver puts an organization's active LLM credentials, by priority,
// in front of the global providers. Organization chains extend the global
// one, so they run with its retry, timeout and cooldown settings and share
// its provider health.
type ChainResolver struct {
	store    store.Store
	sealer   *crypto.Sealer
	registry *llm.Registry
	global   *llm.Chain
	logger   *zap.Logger
}

func NewChainResolver(s store.Store, sealer *crypto.Sealer, registry *llm.Registry, global *llm.Chain, logger *zap.Logger) *ChainResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainResolver{
		store:    s,
		sealer:   sealer,
		registry: registry,
		global:   global,
		logger:   logger.Named("llm.resolver"),
	}
}

// For never fails: credential problems are logged and the global chain is
// used instead.
func (r *ChainResolver) For(ctx context.Context, orgID uuid.UUID) llm.Generator {
	if orgID == uuid.Nil {
		return r.global
	}
	creds, err := r.store.ListActiveCredentials(ctx, orgID, llmServiceTypes)
	if err != nil {
		r.logger.Warn("Listing org LLM credentials failed", zap.Stringer("org_id", orgID), zap.Error(err))
		return r.global
	}
	if len(creds) == 0 {
		return r.global
	}

	providers := make([]llm.Provider, 0, len(creds))
	for i := range creds {
		p, err := r.provider(&creds[i])
		if err != nil {
			r.logger.Warn("Skipping org credential", zap.Stringer("credential_id", creds[i].ID), zap.Error(err))
			continue
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		return r.global
	}
	return r.global.Extend(orgID.String(), providers)
}

func (r *ChainResolver) provider(cred *models.IntegrationCredential) (llm.Provider, error) {
	var creds integration_models.DecryptedCredentials
	if err := r.sealer.OpenJSON(cred.EncryptedCredentials, &creds); err != nil {
		return nil, fmt.Errorf("open credential: %w", err)
	}
	name := fmt.Sprintf("org:%s:%s", integrations.ProviderKind(cred.ServiceType), cred.CredentialName)
	spec := integrations.ProviderSpec(cred.ServiceType, name, creds)
	factory, err := r.registry.Get(spec.Kind)
	if err != nil {
		return nil, err
	}
	p, err := factory(spec)
	if errors.Is(err, llm.ErrMissingAPIKey) {
		return nil, fmt.Errorf("credential has no api key: %w", err)
	}
	return p, err
}

// generateLive runs req but treats a canned answer as a failure, for
// callers that build their own fallback.
func generateLive(ctx context.Context, gen llm.Generator, req llm.Request) (*llm.Response, error) {
	resp, err := gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if isCanned(resp) {
		return nil, fmt.Errorf("%w: only canned answers available", llm.ErrUnsupported)
	}
	return resp, nil
}

func isCanned(resp *llm.Response) bool {
	return resp != nil && resp.Model == llm.KindCanned
}
