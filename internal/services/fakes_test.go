package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"promptdesk-backend/internal/llm"
	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/store"

	"github.com/google/uuid"
)

// memStore is an in-memory store.Store.
type memStore struct {
	mu      sync.Mutex
	users   map[string]*models.User
	orgs    map[uuid.UUID]*models.Organization
	creds   map[uuid.UUID]*models.IntegrationCredential
	chats   map[uuid.UUID]*models.Chat
	items   []models.LostItem
	entries []models.TimeEntry
	err     error
}

var _ store.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users: map[string]*models.User{},
		orgs:  map[uuid.UUID]*models.Organization{},
		creds: map[uuid.UUID]*models.IntegrationCredential{},
		chats: map[uuid.UUID]*models.Chat{},
	}
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return store.ErrConflict
	}
	cp := *user
	m.users[user.Email] = &cp
	return nil
}

func (m *memStore) CreateOrganization(_ context.Context, org *models.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *org
	m.orgs[org.ID] = &cp
	return nil
}

func (m *memStore) CreateIntegrationCredential(_ context.Context, arg store.CreateIntegrationCredentialParams) (*models.IntegrationCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	c := &models.IntegrationCredential{
		ID:                   arg.ID,
		OrganizationID:       arg.OrganizationID,
		ServiceType:          models.ServiceType(arg.ServiceType),
		CredentialName:       arg.CredentialName,
		EncryptedCredentials: arg.EncryptedCredentials,
		Status:               arg.Status,
		Priority:             arg.Priority,
		CreatedAt:            now.Add(time.Duration(len(m.creds)) * time.Millisecond),
		UpdatedAt:            now,
	}
	m.creds[c.ID] = c
	cp := *c
	return &cp, nil
}

func (m *memStore) GetIntegrationCredentialByID(_ context.Context, id, orgID uuid.UUID) (*models.IntegrationCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[id]
	if !ok || c.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) ListIntegrationCredentialsByOrg(_ context.Context, orgID uuid.UUID, serviceType *string) ([]models.IntegrationCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.IntegrationCredential
	for _, c := range m.creds {
		if c.OrganizationID != orgID || (serviceType != nil && *serviceType != "" && string(c.ServiceType) != *serviceType) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ListActiveCredentials(_ context.Context, orgID uuid.UUID, serviceTypes []string) ([]models.IntegrationCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	want := map[string]bool{}
	for _, s := range serviceTypes {
		want[s] = true
	}
	var out []models.IntegrationCredential
	for _, c := range m.creds {
		if c.OrganizationID == orgID && c.Status == models.CredentialStatusActive && want[string(c.ServiceType)] {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memStore) UpdateIntegrationCredentialStatus(_ context.Context, id, orgID uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[id]
	if !ok || c.OrganizationID != orgID {
		return store.ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *memStore) DeleteIntegrationCredential(_ context.Context, id, orgID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[id]
	if !ok || c.OrganizationID != orgID {
		return store.ErrNotFound
	}
	delete(m.creds, id)
	return nil
}

func (m *memStore) CreateChat(_ context.Context, arg store.CreateChatParams) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	c := &models.Chat{
		ID:             arg.ID,
		OrganizationID: arg.OrganizationID,
		UserID:         arg.UserID,
		Title:          arg.Title,
		Messages:       append([]models.ChatMessage(nil), arg.Messages...),
		Status:         "ACTIVE",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.chats[c.ID] = c
	cp := *c
	return &cp, nil
}

func (m *memStore) GetChatByID(_ context.Context, id, orgID uuid.UUID) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[id]
	if !ok || c.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}
	cp := *c
	cp.Messages = append([]models.ChatMessage(nil), c.Messages...)
	return &cp, nil
}

func (m *memStore) ListChatsByUser(_ context.Context, orgID, userID uuid.UUID, limit, offset int) ([]models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Chat
	for _, c := range m.chats {
		if c.OrganizationID == orgID && c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if offset >= len(out) {
		return []models.Chat{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) AddMessagesToChat(_ context.Context, chatID, orgID uuid.UUID, messages ...models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[chatID]
	if !ok || c.OrganizationID != orgID {
		return store.ErrNotFound
	}
	c.Messages = append(c.Messages, messages...)
	c.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) UpdateChatFeedback(_ context.Context, chatID uuid.UUID, feedback int8, orgID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[chatID]
	if !ok || c.OrganizationID != orgID {
		return store.ErrNotFound
	}
	c.Feedback = &feedback
	return nil
}

func (m *memStore) CreateItem(_ context.Context, item *models.LostItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.PostDate.IsZero() {
		item.PostDate = time.Now().Add(time.Duration(len(m.items)) * time.Second)
	}
	m.items = append(m.items, *item)
	return nil
}

func (m *memStore) ListItems(_ context.Context, orgID uuid.UUID, f store.ItemFilter) ([]models.LostItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LostItem
	for _, it := range m.items {
		switch {
		case it.OrganizationID != orgID,
			f.Type != "" && it.Type != f.Type,
			f.City != "" && !strings.EqualFold(it.City, f.City),
			f.Category != "" && !strings.EqualFold(it.Category, f.Category),
			f.Color != "" && !strings.EqualFold(it.Color, f.Color),
			f.Keyword != "" && !strings.Contains(strings.ToLower(it.Description), strings.ToLower(f.Keyword)):
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostDate.After(out[j].PostDate) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) StartTimeEntry(_ context.Context, entry *models.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.OrganizationID == entry.OrganizationID && e.UserID == entry.UserID && e.EndedAt == nil {
			return store.ErrConflict
		}
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memStore) GetRunningTimeEntry(_ context.Context, orgID, userID uuid.UUID) (*models.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.OrganizationID == orgID && e.UserID == userID && e.EndedAt == nil {
			cp := e
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) StopTimeEntry(_ context.Context, orgID, userID uuid.UUID, endedAt time.Time) (*models.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		e := &m.entries[i]
		if e.OrganizationID == orgID && e.UserID == userID && e.EndedAt == nil {
			end := endedAt
			e.EndedAt = &end
			e.DurationSeconds = max(0, int64(endedAt.Sub(e.StartedAt)/time.Second))
			cp := *e
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) ListTimeEntries(_ context.Context, orgID, userID uuid.UUID, from, to time.Time) ([]models.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TimeEntry
	for _, e := range m.entries {
		if e.OrganizationID == orgID && e.UserID == userID && !e.StartedAt.Before(from) && e.StartedAt.Before(to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

// scriptedGen answers with fixed text or fails, and records requests.
type scriptedGen struct {
	mu       sync.Mutex
	text     string
	model    string
	err      error
	requests []llm.Request
}

func replying(text string) *scriptedGen { return &scriptedGen{text: text} }

func failingGen() *scriptedGen {
	return &scriptedGen{err: &llm.ChainError{Attempts: []error{&llm.ProviderError{Provider: "p", StatusCode: 503, Err: assertErr}}}}
}

func (g *scriptedGen) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &llm.Response{Text: g.text, Provider: "fake", Model: g.model}, nil
}

func (g *scriptedGen) last() llm.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

func source(g llm.Generator) GeneratorSource { return StaticSource{Generator: g} }

type errString string

func (e errString) Error() string { return string(e) }

const assertErr = errString("upstream unavailable")

var (
	testOrg  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testUser = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)
