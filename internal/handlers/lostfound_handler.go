package handlers

import (
	"context"
	"net/http"

	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/store"
	"promptdesk-backend/pkg/httputil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LostFoundService interface {
	ReportItem(ctx context.Context, orgID uuid.UUID, req models.CreateItemRequest) (*models.ItemResponse, error)
	ListItems(ctx context.Context, orgID uuid.UUID, filter store.ItemFilter) ([]models.ItemResponse, error)
	Chat(ctx context.Context, orgID uuid.UUID, message string) (*models.LostFoundChatResponse, error)
}

// LostFoundHandler serves the multilingual lost-and-found desk.
type LostFoundHandler struct {
	desk   LostFoundService
	logger *zap.Logger
}

func NewLostFoundHandler(svc LostFoundService, logger *zap.Logger) *LostFoundHandler {
	return &LostFoundHandler{desk: svc, logger: nopIfNil(logger).Named("lostfound_handler")}
}

// HandleChat handles POST /v1/lostfound/chat.
func (h *LostFoundHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}
	var req models.LostFoundChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.desk.Chat(r.Context(), orgID, req.Message)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to answer message")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleReportItem handles POST /v1/items.
func (h *LostFoundHandler) HandleReportItem(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}
	var req models.CreateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.desk.ReportItem(r.Context(), orgID, req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to report item")
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, item)
}

// HandleListItems handles GET /v1/items with optional city, category,
// color, type, keyword and limit filters.
func (h *LostFoundHandler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", 0)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := store.ItemFilter{
		City:     q.Get("city"),
		Category: q.Get("category"),
		Color:    q.Get("color"),
		Type:     models.ItemType(q.Get("type")),
		Keyword:  q.Get("keyword"),
		Limit:    limit,
	}

	items, err := h.desk.ListItems(r.Context(), orgID, filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list items")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, items)
}
