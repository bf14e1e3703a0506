package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the database.
type User struct {
	ID             uuid.UUID `db:"id"`
	OrganizationID uuid.UUID `db:"organization_id"`
	Email          string    `db:"email"`
	HashedPassword string    `db:"hashed_password"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Organization owns users, credentials and all feature data.
type Organization struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IntegrationCredential represents stored credentials for an LLM provider or
// an external API.
type IntegrationCredential struct {
	ID                   uuid.UUID   `db:"id"`
	OrganizationID       uuid.UUID   `db:"organization_id"`
	ServiceType          ServiceType `db:"service_type"`
	CredentialName       string      `db:"credential_name"`
	EncryptedCredentials []byte      `db:"encrypted_credentials"` // Raw sealed bytes; stored base64-wrapped in JSONB
	Status               string      `db:"status"`
	Priority             int         `db:"priority"` // Lower runs first in the org provider chain
	CreatedAt            time.Time   `db:"created_at"`
	UpdatedAt            time.Time   `db:"updated_at"`
}

// Chat is a persisted science-tutor conversation. Messages live in a JSONB column.
type Chat struct {
	ID             uuid.UUID     `db:"id"`
	OrganizationID uuid.UUID     `db:"organization_id"`
	UserID         uuid.UUID     `db:"user_id"`
	Title          string        `db:"title"`
	Messages       []ChatMessage `db:"messages"`
	Feedback       *int8         `db:"feedback"`
	Status         string        `db:"status"`
	CreatedAt      time.Time     `db:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at"`
}

// LostItem is a lost or found object reported to the lost-and-found desk.
type LostItem struct {
	ID             uuid.UUID `db:"id"`
	OrganizationID uuid.UUID `db:"organization_id"`
	Description    string    `db:"description"`
	City           string    `db:"city"`
	Category       string    `db:"category"`
	Brand          string    `db:"brand"`
	Model          string    `db:"model"`
	Color          string    `db:"color"`
	Type           ItemType  `db:"type"`
	Condition      string    `db:"condition"`
	PostDate       time.Time `db:"postdate"`
}

// TimeEntry is one tracked work interval. EndedAt is nil while running.
type TimeEntry struct {
	ID              uuid.UUID  `db:"id"`
	OrganizationID  uuid.UUID  `db:"organization_id"`
	UserID          uuid.UUID  `db:"user_id"`
	Project         string     `db:"project"`
	Task            string     `db:"task"`
	StartedAt       time.Time  `db:"started_at"`
	EndedAt         *time.Time `db:"ended_at"`
	DurationSeconds int64      `db:"duration_seconds"`
}
