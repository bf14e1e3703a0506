package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"promptdesk-backend/internal/crypto"
	"promptdesk-backend/internal/integrations"
	"promptdesk-backend/internal/models"
	integration_models "promptdesk-backend/internal/models/integrations"
	"promptdesk-backend/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Custom errors for Credentials service
var (
	ErrCredentialNotFound   = errors.New("credential not found")
	ErrCredentialValidation = errors.New("credential validation failed")
	ErrCredentialEncryption = errors.New("credential encryption failed")
	ErrCredentialDecryption = errors.New("credential decryption failed")
	ErrCredentialTestFailed = errors.New("credential test failed")
)

// CredentialsService manages the "bring your own key" credentials of an
// organization. Secrets are sealed before storage and never returned.
type CredentialsService interface {
	CreateCredential(ctx context.Context, req models.CreateCredentialRequest, orgID uuid.UUID) (*models.CredentialResponse, error)
	GetCredential(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*models.CredentialResponse, error)
	ListCredentials(ctx context.Context, orgID uuid.UUID, serviceType *string) ([]models.CredentialResponse, error)
	UpdateCredentialStatus(ctx context.Context, id uuid.UUID, orgID uuid.UUID, status string) (*models.CredentialResponse, error)
	DeleteCredential(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error
	TestCredential(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*models.TestCredentialResponse, error)
	CredentialOpener
}

// CredentialOpener hands the decrypted payload of an organization's first
// active credential of a service to the features that call that service.
type CredentialOpener interface {
	OpenActiveCredential(ctx context.Context, orgID uuid.UUID, service models.ServiceType) (integration_models.DecryptedCredentials, error)
}

type credentialsService struct {
	store    store.Store
	sealer   *crypto.Sealer
	registry *integrations.Registry
	logger   *zap.Logger
}

// NewCredentialsService creates a new CredentialsService.
func NewCredentialsService(s store.Store, sealer *crypto.Sealer, reg *integrations.Registry, logger *zap.Logger) CredentialsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &credentialsService{
		store:    s,
		sealer:   sealer,
		registry: reg,
		logger:   logger.Named("credentials"),
	}
}

func mapDbCredentialToResponse(dbCred *models.IntegrationCredential) *models.CredentialResponse {
	return &models.CredentialResponse{
		ID:             dbCred.ID,
		OrganizationID: dbCred.OrganizationID,
		ServiceType:    dbCred.ServiceType,
		CredentialName: dbCred.CredentialName,
		Status:         dbCred.Status,
		Priority:       dbCred.Priority,
		CreatedAt:      dbCred.CreatedAt,
		UpdatedAt:      dbCred.UpdatedAt,
	}
}

// CreateCredential validates, seals and stores new integration credentials.
// Slack tokens are tested before saving and named after the bot.
func (s *credentialsService) CreateCredential(ctx context.Context, req models.CreateCredentialRequest, orgID uuid.UUID) (*models.CredentialResponse, error) {
	if req.ServiceType == "" {
		return nil, fmt.Errorf("%w: service type cannot be empty", ErrCredentialValidation)
	}
	if len(req.Credentials) == 0 {
		return nil, fmt.Errorf("%w: credentials map cannot be empty", ErrCredentialValidation)
	}
	if req.Priority < 0 {
		return nil, fmt.Errorf("%w: priority cannot be negative", ErrCredentialValidation)
	}
	integration, err := s.registry.Get(req.ServiceType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialValidation, err)
	}
	creds := integration_models.DecryptedCredentials(req.Credentials)
	if err := integration.ValidateCredentials(creds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialValidation, err)
	}

	var name string
	if req.CredentialName != nil {
		name = strings.TrimSpace(*req.CredentialName)
	}

	if req.ServiceType == models.ServiceTypeSlack {
		testResult, err := integration.TestConnection(ctx, creds)
		if err != nil {
			s.logger.Error("Slack pre-save test errored", zap.Stringer("org_id", orgID), zap.Error(err))
			return nil, fmt.Errorf("failed to test Slack connection: %w", err)
		}
		if !testResult.Success {
			s.logger.Warn("Slack pre-save test failed", zap.Stringer("org_id", orgID), zap.String("message", testResult.Message))
			return nil, fmt.Errorf("%w: %s", ErrCredentialTestFailed, testResult.Message)
		}
		if botName, ok := testResult.Details["bot_name"].(string); ok && botName != "" && name == "" {
			name = botName
		}
	}
	if name == "" {
		name = strings.ToLower(string(req.ServiceType))
	}

	sealed, err := s.sealer.SealJSON(creds)
	if err != nil {
		s.logger.Error("Sealing credentials failed", zap.Stringer("org_id", orgID), zap.Error(err))
		return nil, ErrCredentialEncryption
	}

	dbCred, err := s.store.CreateIntegrationCredential(ctx, store.CreateIntegrationCredentialParams{
		ID:                   uuid.New(),
		OrganizationID:       orgID,
		ServiceType:          string(req.ServiceType),
		CredentialName:       name,
		EncryptedCredentials: sealed,
		Status:               models.CredentialStatusActive,
		Priority:             req.Priority,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save credential: %w", err)
	}

	s.logger.Info("Credential created",
		zap.Stringer("credential_id", dbCred.ID),
		zap.Stringer("org_id", orgID),
		zap.String("service_type", string(req.ServiceType)),
	)
	return mapDbCredentialToResponse(dbCred), nil
}

// GetCredential retrieves a credential by ID for the specified organization.
func (s *credentialsService) GetCredential(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*models.CredentialResponse, error) {
	dbCred, err := s.get(ctx, id, orgID)
	if err != nil {
		return nil, err
	}
	return mapDbCredentialToResponse(dbCred), nil
}

// ListCredentials retrieves all credentials for the specified organization.
func (s *credentialsService) ListCredentials(ctx context.Context, orgID uuid.UUID, serviceType *string) ([]models.CredentialResponse, error) {
	dbCreds, err := s.store.ListIntegrationCredentialsByOrg(ctx, orgID, serviceType)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	resp := make([]models.CredentialResponse, len(dbCreds))
	for i := range dbCreds {
		resp[i] = *mapDbCredentialToResponse(&dbCreds[i])
	}
	return resp, nil
}

// UpdateCredentialStatus activates or deactivates a credential.
func (s *credentialsService) UpdateCredentialStatus(ctx context.Context, id uuid.UUID, orgID uuid.UUID, status string) (*models.CredentialResponse, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	switch status {
	case models.CredentialStatusActive, models.CredentialStatusInactive:
	default:
		return nil, fmt.Errorf("%w: status must be ACTIVE or INACTIVE", ErrCredentialValidation)
	}
	if err := s.store.UpdateIntegrationCredentialStatus(ctx, id, orgID, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to update credential status: %w", err)
	}
	return s.GetCredential(ctx, id, orgID)
}

// DeleteCredential deletes a credential by ID for the specified organization.
func (s *credentialsService) DeleteCredential(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error {
	if err := s.store.DeleteIntegrationCredential(ctx, id, orgID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCredentialNotFound
		}
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	s.logger.Info("Credential deleted", zap.Stringer("credential_id", id), zap.Stringer("org_id", orgID))
	return nil
}

// TestCredential probes the external service with the stored secrets. A
// rejected credential is marked INVALID; a passing INVALID one is reactivated.
func (s *credentialsService) TestCredential(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*models.TestCredentialResponse, error) {
	dbCred, err := s.get(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	integration, err := s.registry.Get(dbCred.ServiceType)
	if err != nil {
		s.logger.Error("No integration for stored credential", zap.Stringer("credential_id", id), zap.Error(err))
		return nil, fmt.Errorf("internal error: unsupported service type '%s'", dbCred.ServiceType)
	}

	var creds integration_models.DecryptedCredentials
	if err := s.sealer.OpenJSON(dbCred.EncryptedCredentials, &creds); err != nil {
		s.logger.Error("Opening credential failed", zap.Stringer("credential_id", id), zap.Error(err))
		return &models.TestCredentialResponse{
			Success: false,
			Message: "Failed to decrypt credentials for testing.",
		}, nil
	}

	testResult, err := integration.TestConnection(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("error occurred during connection test: %w", err)
	}
	s.logger.Info("Credential tested",
		zap.Stringer("credential_id", id),
		zap.Bool("success", testResult.Success),
		zap.String("message", testResult.Message),
	)

	next := ""
	switch {
	case !testResult.Success && dbCred.Status == models.CredentialStatusActive:
		next = models.CredentialStatusInvalid
	case testResult.Success && dbCred.Status == models.CredentialStatusInvalid:
		next = models.CredentialStatusActive
	}
	if next != "" {
		if err := s.store.UpdateIntegrationCredentialStatus(ctx, id, orgID, next); err != nil {
			s.logger.Warn("Updating status after test failed", zap.Stringer("credential_id", id), zap.Error(err))
		}
	}

	return &models.TestCredentialResponse{
		Success: testResult.Success,
		Message: testResult.Message,
		Details: testResult.Details,
	}, nil
}

// OpenActiveCredential returns ErrCredentialNotFound when the organization
// has no active credential for service.
func (s *credentialsService) OpenActiveCredential(ctx context.Context, orgID uuid.UUID, service models.ServiceType) (integration_models.DecryptedCredentials, error) {
	creds, err := s.store.ListActiveCredentials(ctx, orgID, []string{string(service)})
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	if len(creds) == 0 {
		return nil, ErrCredentialNotFound
	}
	var out integration_models.DecryptedCredentials
	if err := s.sealer.OpenJSON(creds[0].EncryptedCredentials, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialDecryption, err)
	}
	return out, nil
}

func (s *credentialsService) get(ctx context.Context, id, orgID uuid.UUID) (*models.IntegrationCredential, error) {
	dbCred, err := s.store.GetIntegrationCredentialByID(ctx, id, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to retrieve credential: %w", err)
	}
	return dbCred, nil
}
