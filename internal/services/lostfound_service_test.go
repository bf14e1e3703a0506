package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"promptdesk-backend/internal/lostfound"
	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu    sync.Mutex
	items []models.LostItem
	err   error
}

func (n *recordingNotifier) NotifyItem(_ context.Context, item *models.LostItem) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, *item)
	return n.err
}

func TestLostFoundService_ReportItem(t *testing.T) {
	s := newMemStore()
	notifier := &recordingNotifier{}
	svc := NewLostFoundService(s, source(failingGen()), notifier, nil)

	resp, err := svc.ReportItem(context.Background(), testOrg, models.CreateItemRequest{
		Description: " Black Samsung phone near the station ",
		City:        "fez",
		Color:       "Noir",
		Type:        models.ItemTypeFound,
	})
	require.NoError(t, err)
	assert.Equal(t, "Fes", resp.City)
	assert.Equal(t, "electronics", resp.Category)
	assert.Equal(t, "black", resp.Color)
	assert.Equal(t, "Black Samsung phone near the station", resp.Description)

	require.Len(t, notifier.items, 1)
	assert.Equal(t, resp.ID, notifier.items[0].ID)
	require.Len(t, s.items, 1)
	assert.Equal(t, testOrg, s.items[0].OrganizationID)
}

func TestLostFoundService_ReportItemCategory(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("slack down")}
	svc := NewLostFoundService(newMemStore(), source(failingGen()), notifier, nil)
	ctx := context.Background()

	resp, err := svc.ReportItem(ctx, testOrg, models.CreateItemRequest{
		Description: "Red umbrella", City: "Springfield", Category: "Outdoor Gear", Type: models.ItemTypeLost,
	})
	require.NoError(t, err, "a failed notification does not fail the report")
	assert.Equal(t, "outdoor gear", resp.Category)
	assert.Equal(t, "Springfield", resp.City)

	resp, err = svc.ReportItem(ctx, testOrg, models.CreateItemRequest{
		Description: "blue thing", City: "Rabat", Category: "passport", Type: models.ItemTypeLost,
	})
	require.NoError(t, err)
	assert.Equal(t, "documents", resp.Category)

	_, err = svc.ReportItem(ctx, testOrg, models.CreateItemRequest{Description: "something shiny", City: "Rabat", Type: models.ItemTypeLost})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.ReportItem(ctx, testOrg, models.CreateItemRequest{Description: "phone", City: "Rabat", Type: "stolen"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.ReportItem(ctx, testOrg, models.CreateItemRequest{Description: "phone", Type: models.ItemTypeLost})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLostFoundService_ListItems(t *testing.T) {
	svc := NewLostFoundService(newMemStore(), source(failingGen()), nil, nil)
	ctx := context.Background()
	for _, req := range []models.CreateItemRequest{
		{Description: "black phone", City: "Fès", Color: "black", Type: models.ItemTypeFound},
		{Description: "brown wallet", City: "Rabat", Color: "brown", Type: models.ItemTypeFound},
		{Description: "black phone", City: "Fes", Color: "black", Type: models.ItemTypeLost},
	} {
		_, err := svc.ReportItem(ctx, testOrg, req)
		require.NoError(t, err)
	}

	items, err := svc.ListItems(ctx, testOrg, store.ItemFilter{City: "fez", Color: "noir", Type: models.ItemTypeFound})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "black phone", items[0].Description)

	items, err = svc.ListItems(ctx, testOrg, store.ItemFilter{Category: "purse"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Rabat", items[0].City)

	_, err = svc.ListItems(ctx, testOrg, store.ItemFilter{Type: "stolen"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLostFoundService_ChatSearch(t *testing.T) {
	svc := NewLostFoundService(newMemStore(), source(failingGen()), nil, nil)
	ctx := context.Background()
	_, err := svc.ReportItem(ctx, testOrg, models.CreateItemRequest{
		Description: "Samsung phone with a cracked screen", City: "Paris", Color: "black", Type: models.ItemTypeFound,
	})
	require.NoError(t, err)

	resp, err := svc.Chat(ctx, testOrg, "I lost my black Samsung phone in Paris")
	require.NoError(t, err)
	assert.Equal(t, lostfound.IntentSearch, resp.Intent)
	assert.Equal(t, lostfound.LangEnglish, resp.Language)
	require.NotNil(t, resp.Query)
	assert.Equal(t, models.ItemTypeLost, resp.Query.Type)
	require.Len(t, resp.Items, 1)
	assert.Contains(t, resp.Reply, "cracked screen")

	// Someone who found a phone is shown lost reports, and there are none.
	resp, err = svc.Chat(ctx, testOrg, "I found a black phone in Paris")
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.NotEmpty(t, resp.Reply)
}

func TestLostFoundService_ChatIntents(t *testing.T) {
	ctx := context.Background()

	svc := NewLostFoundService(newMemStore(), source(failingGen()), nil, nil)
	resp, err := svc.Chat(ctx, testOrg, "Bonjour")
	require.NoError(t, err)
	assert.Equal(t, lostfound.IntentGreeting, resp.Intent)
	assert.Equal(t, lostfound.GreetingReply(lostfound.LangFrench), resp.Reply)

	resp, err = svc.Chat(ctx, testOrg, "what are your opening hours?")
	require.NoError(t, err)
	assert.Equal(t, lostfound.IntentQuestion, resp.Intent)
	assert.Equal(t, models.SourceFallback, resp.Source)
	assert.Equal(t, lostfound.FallbackReply(lostfound.LangEnglish), resp.Reply)

	gen := replying(" We open at 9. ")
	svc = NewLostFoundService(newMemStore(), source(gen), nil, nil)
	resp, err = svc.Chat(ctx, testOrg, "what are your opening hours?")
	require.NoError(t, err)
	assert.Equal(t, models.SourceLLM, resp.Source)
	assert.Equal(t, "We open at 9.", resp.Reply)
	assert.Contains(t, gen.last().System, "reply in English")

	_, err = svc.Chat(ctx, testOrg, " ")
	assert.ErrorIs(t, err, ErrValidation)
}
