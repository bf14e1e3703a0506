package integrations

import (
	"context"
	"fmt"

	"promptdesk-backend/internal/models"
	integration_models "promptdesk-backend/internal/models/integrations"

	"go.uber.org/zap"
)

// Integration defines the standard interface for all external services an
// organization can store credentials for.
type Integration interface {
	// ValidateCredentials checks that the raw credential map has every key
	// the service needs. It does not contact the service.
	ValidateCredentials(creds integration_models.DecryptedCredentials) error

	// TestConnection attempts to reach the external service using the provided decrypted credentials.
	// A rejected key is reported through the result, not the error.
	TestConnection(ctx context.Context, creds integration_models.DecryptedCredentials) (*integration_models.TestConnectionResult, error)

	// GetCredentialSchema returns the expected structure (as an empty struct instance)
	// for the credentials required by this integration.
	GetCredentialSchema() interface{}
}

// Registry holds the mapping between service types and their Integration implementations.
type Registry struct {
	integrations map[models.ServiceType]Integration
	logger       *zap.Logger
}

// NewRegistry creates a new integration registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		integrations: make(map[models.ServiceType]Integration),
		logger:       logger,
	}
}

// Register adds an integration implementation to the registry.
func (r *Registry) Register(serviceType models.ServiceType, integration Integration) {
	if _, exists := r.integrations[serviceType]; exists {
		r.logger.Warn("Service type is already registered, overwriting", zap.String("service_type", string(serviceType)))
	}
	r.integrations[serviceType] = integration
	r.logger.Debug("Registered integration", zap.String("service_type", string(serviceType)))
}

// Get retrieves an integration implementation from the registry by service type.
func (r *Registry) Get(serviceType models.ServiceType) (Integration, error) {
	integration, exists := r.integrations[serviceType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, serviceType)
	}
	return integration, nil
}
