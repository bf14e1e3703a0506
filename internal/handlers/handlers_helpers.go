package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"promptdesk-backend/internal/auth"
	"promptdesk-backend/internal/services"
	"promptdesk-backend/pkg/httputil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into v and writes the error response
// itself when it cannot.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "Request body is too large")
			return false
		}
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// orgFromContext returns the organization of the authenticated caller.
func orgFromContext(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orgID, ok := auth.GetOrgIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Organization ID not found in token context")
		return uuid.Nil, false
	}
	return orgID, true
}

// identityFromContext returns the organization and user of the caller.
func identityFromContext(w http.ResponseWriter, r *http.Request) (orgID, userID uuid.UUID, ok bool) {
	if orgID, ok = orgFromContext(w, r); !ok {
		return uuid.Nil, uuid.Nil, false
	}
	userID, ok = auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "User ID not found in token context")
		return uuid.Nil, uuid.Nil, false
	}
	return orgID, userID, true
}

// statusFor maps the service sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrCredentialValidation),
		errors.Is(err, services.ErrCredentialTestFailed):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrChatNotFound),
		errors.Is(err, services.ErrCredentialNotFound),
		errors.Is(err, services.ErrNoRunningTimer):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUserAlreadyExists),
		errors.Is(err, services.ErrTimerRunning):
		return http.StatusConflict
	case errors.Is(err, services.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes the response for a failed service call. Client
// errors carry the service message; server errors only carry fallback.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	status := statusFor(err)
	if status < http.StatusInternalServerError {
		httputil.RespondError(w, status, err.Error())
		return
	}
	logger.Error(fallback, zap.Int("status", status), zap.Error(err))
	httputil.RespondError(w, status, fallback)
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
