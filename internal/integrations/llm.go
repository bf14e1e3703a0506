package integrations

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"promptdesk-backend/internal/llm"
	"promptdesk-backend/internal/models"
	integration_models "promptdesk-backend/internal/models/integrations"
)

const probeTimeout = 20 * time.Second

var _ Integration = (*LLMIntegration)(nil)

// LLMIntegration covers the OpenAI-compatible and Gemini services. A test
// sends a one-word prompt through a provider built from the credentials.
type LLMIntegration struct {
	service  models.ServiceType
	registry *llm.Registry
}

func NewLLMIntegration(service models.ServiceType, registry *llm.Registry) *LLMIntegration {
	return &LLMIntegration{service: service, registry: registry}
}

// ProviderKind maps a service type to its provider chain kind.
func ProviderKind(service models.ServiceType) string {
	return strings.ToLower(string(service))
}

// ProviderSpec turns decrypted org credentials into a chain entry.
func ProviderSpec(service models.ServiceType, name string, creds integration_models.DecryptedCredentials) llm.ProviderSpec {
	return llm.ProviderSpec{
		Name:    name,
		Kind:    ProviderKind(service),
		Model:   creds["model"],
		BaseURL: creds["base_url"],
		APIKey:  creds["api_key"],
	}
}

func (i *LLMIntegration) ValidateCredentials(creds integration_models.DecryptedCredentials) error {
	// A local Ollama server needs no key.
	if i.service == models.ServiceTypeOllama {
		return nil
	}
	return requireFields(creds, "api_key")
}

func (i *LLMIntegration) TestConnection(ctx context.Context, creds integration_models.DecryptedCredentials) (*integration_models.TestConnectionResult, error) {
	spec := ProviderSpec(i.service, ProviderKind(i.service)+"-test", creds)
	factory, err := i.registry.Get(spec.Kind)
	if err != nil {
		return nil, err
	}
	provider, err := factory(spec)
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			return &integration_models.TestConnectionResult{Success: false, Message: "Missing 'api_key' in credentials"}, nil
		}
		return nil, fmt.Errorf("failed to build %s provider: %w", spec.Kind, err)
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	resp, err := provider.Generate(ctx, llm.Request{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: "Reply with the single word OK."}},
		MaxTokens: 5,
	})
	if err != nil {
		var perr *llm.ProviderError
		if errors.As(err, &perr) && (perr.StatusCode == http.StatusUnauthorized || perr.StatusCode == http.StatusForbidden) {
			return &integration_models.TestConnectionResult{
				Success: false,
				Message: fmt.Sprintf("%s rejected the API key", i.service),
			}, nil
		}
		return &integration_models.TestConnectionResult{
			Success: false,
			Message: fmt.Sprintf("%s request failed: %v", i.service, err),
		}, nil
	}

	return &integration_models.TestConnectionResult{
		Success: true,
		Message: fmt.Sprintf("Connected to %s", i.service),
		Details: map[string]interface{}{"model": resp.Model},
	}, nil
}

func (i *LLMIntegration) GetCredentialSchema() interface{} {
	return integration_models.LLMCredentials{}
}
