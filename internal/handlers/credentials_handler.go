package handlers

import (
	"context"
	"net/http"

	"promptdesk-backend/internal/models"
	"promptdesk-backend/pkg/httputil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CredentialsService defines the interface expected from the credentials service.
type CredentialsService interface {
	CreateCredential(ctx context.Context, req models.CreateCredentialRequest, orgID uuid.UUID) (*models.CredentialResponse, error)
	GetCredential(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*models.CredentialResponse, error)
	ListCredentials(ctx context.Context, orgID uuid.UUID, serviceType *string) ([]models.CredentialResponse, error)
	UpdateCredentialStatus(ctx context.Context, id uuid.UUID, orgID uuid.UUID, status string) (*models.CredentialResponse, error)
	DeleteCredential(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error
	TestCredential(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*models.TestCredentialResponse, error)
}

type CredentialsHandler struct {
	credService CredentialsService
	logger      *zap.Logger
}

func NewCredentialsHandler(credSvc CredentialsService, logger *zap.Logger) *CredentialsHandler {
	return &CredentialsHandler{
		credService: credSvc,
		logger:      nopIfNil(logger).Named("credentials_handler"),
	}
}

// HandleCreateCredential handles POST /v1/credentials
func (h *CredentialsHandler) HandleCreateCredential(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}

	var req models.CreateCredentialRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ServiceType == "" || len(req.Credentials) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "Missing required fields: service_type, credentials")
		return
	}

	resp, err := h.credService.CreateCredential(r.Context(), req, orgID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create credential")
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleListCredentials handles GET /v1/credentials
func (h *CredentialsHandler) HandleListCredentials(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}

	var serviceTypeFilter *string
	if q := r.URL.Query().Get("service_type"); q != "" {
		serviceTypeFilter = &q
	}

	creds, err := h.credService.ListCredentials(r.Context(), orgID, serviceTypeFilter)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list credentials")
		return
	}
	if creds == nil {
		creds = []models.CredentialResponse{}
	}

	httputil.RespondJSON(w, http.StatusOK, creds)
}

// HandleGetCredential handles GET /v1/credentials/{credentialID}
func (h *CredentialsHandler) HandleGetCredential(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}
	credID, ok := pathUUID(w, r, "credentialID", "credential")
	if !ok {
		return
	}

	resp, err := h.credService.GetCredential(r.Context(), credID, orgID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get credential")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleUpdateCredentialStatus handles PATCH /v1/credentials/{credentialID}/status
func (h *CredentialsHandler) HandleUpdateCredentialStatus(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}
	credID, ok := pathUUID(w, r, "credentialID", "credential")
	if !ok {
		return
	}

	var req models.UpdateCredentialStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.credService.UpdateCredentialStatus(r.Context(), credID, orgID, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update credential status")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleDeleteCredential handles DELETE /v1/credentials/{credentialID}
func (h *CredentialsHandler) HandleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}
	credID, ok := pathUUID(w, r, "credentialID", "credential")
	if !ok {
		return
	}

	if err := h.credService.DeleteCredential(r.Context(), credID, orgID); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete credential")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleTestCredential handles POST /v1/credentials/{credentialID}/test.
// A failed test is still a 200 with success=false.
func (h *CredentialsHandler) HandleTestCredential(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}
	credID, ok := pathUUID(w, r, "credentialID", "credential")
	if !ok {
		return
	}

	resp, err := h.credService.TestCredential(r.Context(), credID, orgID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to test credential")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}
