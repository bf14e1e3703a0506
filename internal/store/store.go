package store

import (
	"context"
	"errors"
	"time"

	db_models "promptdesk-backend/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a write violates a uniqueness rule, such as a
// duplicate email or a second running timer.
var ErrConflict = errors.New("record conflicts with existing data")

// CreateIntegrationCredentialParams contains parameters for creating a credential.
// We pass encrypted bytes directly; JSONB handling (base64 wrapping) happens in the implementation.
type CreateIntegrationCredentialParams struct {
	ID                   uuid.UUID
	OrganizationID       uuid.UUID
	ServiceType          string
	CredentialName       string
	EncryptedCredentials []byte // Raw encrypted bytes
	Status               string
	Priority             int
}

// CreateChatParams contains parameters for starting a chat.
type CreateChatParams struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Title          string
	Messages       []db_models.ChatMessage
}

// ItemFilter narrows an item listing. Empty fields do not filter.
type ItemFilter struct {
	City     string
	Category string
	Color    string
	Type     db_models.ItemType
	// Keyword matches the description, brand or model case-insensitively.
	Keyword string
	Limit   int
}

// Store defines the interface for database operations.
// This allows for mocking in tests and potential DB backend switching.
type Store interface {
	// User operations
	GetUserByEmail(ctx context.Context, email string) (*db_models.User, error)
	CreateUser(ctx context.Context, user *db_models.User) error

	// Organization operations
	CreateOrganization(ctx context.Context, org *db_models.Organization) error

	// Integration Credentials operations
	CreateIntegrationCredential(ctx context.Context, arg CreateIntegrationCredentialParams) (*db_models.IntegrationCredential, error)
	GetIntegrationCredentialByID(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*db_models.IntegrationCredential, error)
	ListIntegrationCredentialsByOrg(ctx context.Context, orgID uuid.UUID, serviceType *string) ([]db_models.IntegrationCredential, error) // Optional filter by type
	// ListActiveCredentials returns ACTIVE credentials of the given types
	// ordered by priority, then age.
	ListActiveCredentials(ctx context.Context, orgID uuid.UUID, serviceTypes []string) ([]db_models.IntegrationCredential, error)
	UpdateIntegrationCredentialStatus(ctx context.Context, id uuid.UUID, orgID uuid.UUID, status string) error
	DeleteIntegrationCredential(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error

	// Chat operations
	CreateChat(ctx context.Context, arg CreateChatParams) (*db_models.Chat, error)
	GetChatByID(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*db_models.Chat, error)
	ListChatsByUser(ctx context.Context, orgID, userID uuid.UUID, limit, offset int) ([]db_models.Chat, error)
	AddMessagesToChat(ctx context.Context, chatID uuid.UUID, orgID uuid.UUID, messages ...db_models.ChatMessage) error
	UpdateChatFeedback(ctx context.Context, chatID uuid.UUID, feedback int8, orgID uuid.UUID) error

	// Lost-and-found operations
	CreateItem(ctx context.Context, item *db_models.LostItem) error
	ListItems(ctx context.Context, orgID uuid.UUID, filter ItemFilter) ([]db_models.LostItem, error)

	// Time tracking operations
	StartTimeEntry(ctx context.Context, entry *db_models.TimeEntry) error
	GetRunningTimeEntry(ctx context.Context, orgID, userID uuid.UUID) (*db_models.TimeEntry, error)
	StopTimeEntry(ctx context.Context, orgID, userID uuid.UUID, endedAt time.Time) (*db_models.TimeEntry, error)
	ListTimeEntries(ctx context.Context, orgID, userID uuid.UUID, from, to time.Time) ([]db_models.TimeEntry, error)
}
