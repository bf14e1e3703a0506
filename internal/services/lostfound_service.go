package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"promptdesk-backend/internal/llm"
	"promptdesk-backend/internal/lostfound"
	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/notify"
	"promptdesk-backend/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	chatSearchLimit       = 5
	maxLostFoundMessage   = 1000
	maxItemDescription    = 2000
	notificationTimeout   = 5 * time.Second
	lostFoundSystemPrompt = "You are the assistant of a lost-and-found desk. Help people report or find lost items. " +
		"Keep answers short and reply in %s."
)

var languageNames = map[string]string{
	lostfound.LangEnglish: "English",
	lostfound.LangFrench:  "French",
	lostfound.LangArabic:  "Arabic",
}

// LostFoundService handles item reports and the multilingual desk chatbot.
type LostFoundService struct {
	store    store.Store
	gens     GeneratorSource
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewLostFoundService creates a LostFoundService. notifier may be nil.
func NewLostFoundService(s store.Store, gens GeneratorSource, notifier notify.Notifier, logger *zap.Logger) *LostFoundService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LostFoundService{store: s, gens: gens, notifier: notifier, logger: logger.Named("lostfound")}
}

// ReportItem stores a lost or found report with its city, category and
// colour in canonical form, then announces it. A failed announcement does
// not fail the report.
func (s *LostFoundService) ReportItem(ctx context.Context, orgID uuid.UUID, req models.CreateItemRequest) (*models.ItemResponse, error) {
	req.Description = strings.TrimSpace(req.Description)
	req.City = strings.TrimSpace(req.City)
	switch {
	case req.Description == "":
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	case utf8.RuneCountInString(req.Description) > maxItemDescription:
		return nil, fmt.Errorf("%w: description exceeds %d characters", ErrValidation, maxItemDescription)
	case req.City == "":
		return nil, fmt.Errorf("%w: city is required", ErrValidation)
	case !req.Type.Valid():
		return nil, fmt.Errorf("%w: type must be lost or found", ErrValidation)
	}

	category := lostfound.CategoryFor(req.Category)
	if category == "" {
		category = strings.ToLower(strings.TrimSpace(req.Category))
	}
	if category == "" {
		category = lostfound.CategoryFor(req.Description)
	}
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", ErrValidation)
	}

	item := &models.LostItem{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Description:    req.Description,
		City:           lostfound.CanonicalCity(req.City),
		Category:       category,
		Brand:          strings.TrimSpace(req.Brand),
		Model:          strings.TrimSpace(req.Model),
		Type:           req.Type,
		Condition:      strings.TrimSpace(req.Condition),
	}
	if req.Color != "" {
		item.Color = lostfound.CanonicalColor(req.Color)
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save item: %w", err)
	}

	nctx, cancel := context.WithTimeout(ctx, notificationTimeout)
	defer cancel()
	if err := s.notifier.NotifyItem(nctx, item); err != nil {
		s.logger.Warn("Item notification failed", zap.Stringer("item_id", item.ID), zap.Error(err))
	}

	s.logger.Info("Item reported", zap.Stringer("item_id", item.ID), zap.String("type", string(item.Type)), zap.String("city", item.City))
	resp := models.ToItemResponse(item)
	return &resp, nil
}

// ListItems filters the organization's reports, newest first.
func (s *LostFoundService) ListItems(ctx context.Context, orgID uuid.UUID, filter store.ItemFilter) ([]models.ItemResponse, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: type must be lost or found", ErrValidation)
	}
	if filter.City != "" {
		filter.City = lostfound.CanonicalCity(filter.City)
	}
	if filter.Category != "" {
		if c := lostfound.CategoryFor(filter.Category); c != "" {
			filter.Category = c
		}
	}
	if filter.Color != "" {
		filter.Color = lostfound.CanonicalColor(filter.Color)
	}
	filter.Keyword = strings.TrimSpace(filter.Keyword)

	items, err := s.store.ListItems(ctx, orgID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	out := make([]models.ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, models.ToItemResponse(&items[i]))
	}
	return out, nil
}

// Chat answers a desk message in the language it was written in. Searches
// look up reports of the opposite type: someone who lost an item is shown
// found reports.
func (s *LostFoundService) Chat(ctx context.Context, orgID uuid.UUID, message string) (*models.LostFoundChatResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}
	if utf8.RuneCountInString(message) > maxLostFoundMessage {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrValidation, maxLostFoundMessage)
	}

	lang := lostfound.DetectLanguage(message)
	intent := lostfound.Classify(message)
	resp := &models.LostFoundChatResponse{Language: lang, Intent: intent}

	switch intent {
	case lostfound.IntentSearch:
		q := lostfound.ParseQuery(message)
		items, err := s.store.ListItems(ctx, orgID, store.ItemFilter{
			City:     q.City,
			Category: q.Category,
			Color:    q.Color,
			Type:     q.Type.Opposite(),
			Limit:    chatSearchLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to search items: %w", err)
		}
		resp.Query = &q
		resp.Reply = lostfound.SearchReply(lang, q, items)
		resp.Items = make([]models.ItemResponse, 0, len(items))
		for i := range items {
			resp.Items = append(resp.Items, models.ToItemResponse(&items[i]))
		}
	case lostfound.IntentGreeting:
		resp.Reply = lostfound.GreetingReply(lang)
	case lostfound.IntentHelp:
		resp.Reply = lostfound.HelpReply(lang)
	default:
		out, err := generateLive(ctx, s.gens.For(ctx, orgID), llm.Request{
			System:      fmt.Sprintf(lostFoundSystemPrompt, languageNames[lang]),
			Messages:    []llm.Message{{Role: llm.RoleUser, Content: message}},
			Temperature: 0.3,
			MaxTokens:   300,
		})
		if err != nil {
			s.logger.Warn("Desk question unanswered, using fallback reply", zap.String("language", lang), zap.Error(err))
			resp.Reply = lostfound.FallbackReply(lang)
			resp.Source = models.SourceFallback
			break
		}
		resp.Reply = strings.TrimSpace(out.Text)
		resp.Source = models.SourceLLM
	}
	return resp, nil
}
