package handlers

import (
	"context"
	"net/http"

	"promptdesk-backend/internal/export"
	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/services"
	"promptdesk-backend/pkg/httputil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TimeTrackService interface {
	Start(ctx context.Context, orgID, userID uuid.UUID, req models.StartTimerRequest) (*models.TimeEntryResponse, error)
	Stop(ctx context.Context, orgID, userID uuid.UUID) (*models.TimeEntryResponse, error)
	Current(ctx context.Context, orgID, userID uuid.UUID) (*models.TimeEntryResponse, error)
	ParseRange(from, to string) (services.TimeRange, error)
	Entries(ctx context.Context, orgID, userID uuid.UUID, r services.TimeRange) ([]models.TimeEntryResponse, error)
	Summary(ctx context.Context, orgID, userID uuid.UUID, r services.TimeRange) (*models.TimeSummaryResponse, error)
	Export(ctx context.Context, orgID, userID uuid.UUID, r services.TimeRange) ([]byte, error)
}

type TimeTrackHandler struct {
	tracker TimeTrackService
	logger  *zap.Logger
}

func NewTimeTrackHandler(svc TimeTrackService, logger *zap.Logger) *TimeTrackHandler {
	return &TimeTrackHandler{tracker: svc, logger: nopIfNil(logger).Named("timetrack_handler")}
}

// HandleStart handles POST /v1/time/start. A running timer is a 409.
func (h *TimeTrackHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := identityFromContext(w, r)
	if !ok {
		return
	}
	var req models.StartTimerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.tracker.Start(r.Context(), orgID, userID, req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to start timer")
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, entry)
}

// HandleStop handles POST /v1/time/stop.
func (h *TimeTrackHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := identityFromContext(w, r)
	if !ok {
		return
	}
	entry, err := h.tracker.Stop(r.Context(), orgID, userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to stop timer")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, entry)
}

// HandleCurrent handles GET /v1/time/current.
func (h *TimeTrackHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := identityFromContext(w, r)
	if !ok {
		return
	}
	entry, err := h.tracker.Current(r.Context(), orgID, userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get running timer")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, entry)
}

// HandleEntries handles GET /v1/time/entries?from=&to=.
func (h *TimeTrackHandler) HandleEntries(w http.ResponseWriter, r *http.Request) {
	orgID, userID, rng, ok := h.rangeRequest(w, r)
	if !ok {
		return
	}
	entries, err := h.tracker.Entries(r.Context(), orgID, userID, rng)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list time entries")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, entries)
}

// HandleSummary handles GET /v1/time/summary?from=&to=.
func (h *TimeTrackHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	orgID, userID, rng, ok := h.rangeRequest(w, r)
	if !ok {
		return
	}
	summary, err := h.tracker.Summary(r.Context(), orgID, userID, rng)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to summarize time entries")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, summary)
}

// HandleExport handles GET /v1/time/export?from=&to= and returns an xlsx
// workbook.
func (h *TimeTrackHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	orgID, userID, rng, ok := h.rangeRequest(w, r)
	if !ok {
		return
	}
	body, err := h.tracker.Export(r.Context(), orgID, userID, rng)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to export time entries")
		return
	}
	attachment(w, export.ContentType, "time-entries-"+rng.From.Format("2006-01-02")+".xlsx", body)
}

func (h *TimeTrackHandler) rangeRequest(w http.ResponseWriter, r *http.Request) (orgID, userID uuid.UUID, rng services.TimeRange, ok bool) {
	if orgID, userID, ok = identityFromContext(w, r); !ok {
		return
	}
	rng, err := h.tracker.ParseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		respondServiceError(w, h.logger, err, "Invalid time range")
		return orgID, userID, rng, false
	}
	return orgID, userID, rng, true
}
