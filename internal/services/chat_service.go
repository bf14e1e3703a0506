package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"promptdesk-backend/internal/llm"
	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	chatHistoryLimit  = 10
	maxMessageLength  = 4000
	maxChatTitleRunes = 60
)

const tutorPrompt = "You are a friendly science tutor for students. Answer clearly and accurately in a few short paragraphs, " +
	"use simple examples, and say so when a question is outside science."

var ErrChatNotFound = errors.New("chat not found")

// ChatService runs the science-tutor conversations.
type ChatService struct {
	store  store.Store
	gens   GeneratorSource
	canned *llm.CannedProvider
	logger *zap.Logger
	now    func() time.Time
}

// NewChatService creates a new ChatService. canned answers when every
// provider fails.
func NewChatService(s store.Store, gens GeneratorSource, canned *llm.CannedProvider, logger *zap.Logger) *ChatService {
	if canned == nil {
		canned = llm.NewScienceCanned()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{store: s, gens: gens, canned: canned, logger: logger.Named("chat"), now: time.Now}
}

// CreateChat starts a chat. An initial message is answered right away.
func (s *ChatService) CreateChat(ctx context.Context, orgID, userID uuid.UUID, req models.CreateChatRequest) (*models.ChatResponse, error) {
	var first string
	if req.InitialMessage != nil {
		first = strings.TrimSpace(*req.InitialMessage)
		if err := validateMessage(first); err != nil {
			return nil, err
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = truncateRunes(first, maxChatTitleRunes)
	}
	if title == "" {
		title = "New chat"
	}

	messages := []models.ChatMessage{{
		Role:      llm.RoleSystem,
		Content:   "This is the beginning of your conversation",
		Timestamp: s.now().Unix(),
		Hide:      1,
	}}
	if first != "" {
		messages = append(messages, s.userMessage(first))
		messages = append(messages, s.reply(ctx, orgID, messages))
	}

	chat, err := s.store.CreateChat(ctx, store.CreateChatParams{
		ID:             uuid.New(),
		OrganizationID: orgID,
		UserID:         userID,
		Title:          title,
		Messages:       messages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat in store: %w", err)
	}
	resp := models.ToChatResponse(chat)
	return &resp, nil
}

// GetChat retrieves a specific chat by its ID.
func (s *ChatService) GetChat(ctx context.Context, orgID, chatID uuid.UUID) (*models.ChatResponse, error) {
	chat, err := s.get(ctx, orgID, chatID)
	if err != nil {
		return nil, err
	}
	resp := models.ToChatResponse(chat)
	return &resp, nil
}

// ListChats lists the chats of one user, newest first.
func (s *ChatService) ListChats(ctx context.Context, orgID, userID uuid.UUID, limit, offset int) (*models.ListChatsResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	chats, err := s.store.ListChatsByUser(ctx, orgID, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats from store: %w", err)
	}
	out := make([]models.ChatResponse, 0, len(chats))
	for i := range chats {
		out = append(out, models.ToChatResponse(&chats[i]))
	}
	return &models.ListChatsResponse{Chats: out}, nil
}

// AddMessage appends the user's message and the assistant's reply.
func (s *ChatService) AddMessage(ctx context.Context, orgID, chatID uuid.UUID, message string) (*models.ChatResponse, error) {
	message = strings.TrimSpace(message)
	if err := validateMessage(message); err != nil {
		return nil, err
	}
	chat, err := s.get(ctx, orgID, chatID)
	if err != nil {
		return nil, err
	}

	user := s.userMessage(message)
	history := append(append([]models.ChatMessage(nil), chat.Messages...), user)
	assistant := s.reply(ctx, orgID, history)

	if err := s.store.AddMessagesToChat(ctx, chatID, orgID, user, assistant); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to add messages to chat: %w", err)
	}

	chat.Messages = append(history, assistant)
	chat.UpdatedAt = s.now()
	resp := models.ToChatResponse(chat)
	return &resp, nil
}

// UpdateFeedback records -1, 0 or 1 for a chat.
func (s *ChatService) UpdateFeedback(ctx context.Context, orgID, chatID uuid.UUID, feedback int8) error {
	if feedback < -1 || feedback > 1 {
		return fmt.Errorf("%w: feedback must be -1, 0 or 1", ErrValidation)
	}
	if err := s.store.UpdateChatFeedback(ctx, chatID, feedback, orgID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrChatNotFound
		}
		return fmt.Errorf("failed to update chat feedback: %w", err)
	}
	return nil
}

// reply answers the last user message of history. It always returns a
// message: when the providers fail the canned answer is used and flagged.
func (s *ChatService) reply(ctx context.Context, orgID uuid.UUID, history []models.ChatMessage) models.ChatMessage {
	req := llm.Request{System: tutorPrompt, Messages: RecentHistory(history, chatHistoryLimit), Temperature: 0.7}
	msg := models.ChatMessage{Role: llm.RoleAssistant, Timestamp: s.now().Unix()}

	resp, err := s.gens.For(ctx, orgID).Generate(ctx, req)
	if err != nil {
		s.logger.Warn("Chat reply failed, using canned answer", zap.Error(err))
		msg.Content = s.canned.Answer(req.LastUserMessage())
		msg.Metadata = map[string]interface{}{"fallback": true, "provider": s.canned.Name()}
		return msg
	}
	msg.Content = resp.Text
	msg.Metadata = map[string]interface{}{"provider": resp.Provider}
	if resp.Model != "" {
		msg.Metadata["model"] = resp.Model
	}
	if isCanned(resp) {
		msg.Metadata["fallback"] = true
	}
	return msg
}

func (s *ChatService) userMessage(content string) models.ChatMessage {
	return models.ChatMessage{Role: llm.RoleUser, Content: content, Timestamp: s.now().Unix()}
}

func (s *ChatService) get(ctx context.Context, orgID, chatID uuid.UUID) (*models.Chat, error) {
	chat, err := s.store.GetChatByID(ctx, chatID, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to get chat from store: %w", err)
	}
	return chat, nil
}

// RecentHistory converts the last n visible user and assistant messages.
func RecentHistory(messages []models.ChatMessage, n int) []llm.Message {
	out := make([]llm.Message, 0, n)
	for i := len(messages) - 1; i >= 0 && len(out) < n; i-- {
		m := messages[i]
		if !m.Visible() || (m.Role != llm.RoleUser && m.Role != llm.RoleAssistant) {
			continue
		}
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func validateMessage(message string) error {
	if message == "" {
		return fmt.Errorf("%w: message cannot be empty", ErrValidation)
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		return fmt.Errorf("%w: message exceeds %d characters", ErrValidation, maxMessageLength)
	}
	return nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "…"
}
