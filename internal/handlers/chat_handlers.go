package handlers

import (
	"context"
	"net/http"

	"promptdesk-backend/internal/models"
	"promptdesk-backend/pkg/httputil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatService is what the chat handlers need from the science tutor.
type ChatService interface {
	CreateChat(ctx context.Context, orgID, userID uuid.UUID, req models.CreateChatRequest) (*models.ChatResponse, error)
	GetChat(ctx context.Context, orgID, chatID uuid.UUID) (*models.ChatResponse, error)
	ListChats(ctx context.Context, orgID, userID uuid.UUID, limit, offset int) (*models.ListChatsResponse, error)
	AddMessage(ctx context.Context, orgID, chatID uuid.UUID, message string) (*models.ChatResponse, error)
	UpdateFeedback(ctx context.Context, orgID, chatID uuid.UUID, feedback int8) error
}

// ChatHandlers handles HTTP requests related to chats.
type ChatHandlers struct {
	chatService ChatService
	logger      *zap.Logger
}

// NewChatHandlers creates a new ChatHandlers instance.
func NewChatHandlers(chatService ChatService, logger *zap.Logger) *ChatHandlers {
	return &ChatHandlers{
		chatService: chatService,
		logger:      nopIfNil(logger).Named("chat_handler"),
	}
}

// HandleCreateChat handles POST /v1/chats.
func (h *ChatHandlers) HandleCreateChat(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := identityFromContext(w, r)
	if !ok {
		return
	}

	var req models.CreateChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	chat, err := h.chatService.CreateChat(r.Context(), orgID, userID, req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create chat")
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, chat)
}

// HandleGetChatByID handles GET /v1/chats/{chatID}.
func (h *ChatHandlers) HandleGetChatByID(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}
	chatID, ok := pathUUID(w, r, "chatID", "chat")
	if !ok {
		return
	}

	chat, err := h.chatService.GetChat(r.Context(), orgID, chatID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get chat")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chat)
}

// HandleListChats handles GET /v1/chats?limit=&offset=.
func (h *ChatHandlers) HandleListChats(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := identityFromContext(w, r)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", 20)
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset", 0)
	if !ok {
		return
	}

	chats, err := h.chatService.ListChats(r.Context(), orgID, userID, limit, offset)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list chats")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chats)
}

// HandleAddMessage handles POST /v1/chats/{chatID}/messages. The response
// is the chat with the user message and the assistant reply appended.
func (h *ChatHandlers) HandleAddMessage(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}
	chatID, ok := pathUUID(w, r, "chatID", "chat")
	if !ok {
		return
	}

	var req models.AddMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	chat, err := h.chatService.AddMessage(r.Context(), orgID, chatID, req.Message)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to add message")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chat)
}

// HandleUpdateFeedback handles PATCH /v1/chats/{chatID}/feedback.
func (h *ChatHandlers) HandleUpdateFeedback(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}
	chatID, ok := pathUUID(w, r, "chatID", "chat")
	if !ok {
		return
	}

	var req models.UpdateChatFeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.chatService.UpdateFeedback(r.Context(), orgID, chatID, req.Feedback); err != nil {
		respondServiceError(w, h.logger, err, "Failed to update chat feedback")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
