package models

import (
	"time"

	"github.com/google/uuid"
)

// --- Auth ---

// SignupRequest defines the expected body for the signup endpoint.
type SignupRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	OrganizationName string `json:"organization_name,omitempty"`
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

// AuthResponse defines the response body for successful authentication.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// --- Integration credentials ---

// ServiceType names an external service an organization can bring a key for.
type ServiceType string

const (
	ServiceTypeOpenAI      ServiceType = "OPENAI"
	ServiceTypeGemini      ServiceType = "GEMINI"
	ServiceTypeDeepSeek    ServiceType = "DEEPSEEK"
	ServiceTypeOllama      ServiceType = "OLLAMA"
	ServiceTypeOpenWeather ServiceType = "OPENWEATHER"
	ServiceTypeSlack       ServiceType = "SLACK"
)

// IsLLM reports whether the service can join a provider chain.
func (s ServiceType) IsLLM() bool {
	switch s {
	case ServiceTypeOpenAI, ServiceTypeGemini, ServiceTypeDeepSeek, ServiceTypeOllama:
		return true
	}
	return false
}

// Credential statuses.
const (
	CredentialStatusActive   = "ACTIVE"
	CredentialStatusInactive = "INACTIVE"
	CredentialStatusInvalid  = "INVALID"
)

// CreateCredentialRequest carries raw secrets. They are sealed before storage
// and never returned.
type CreateCredentialRequest struct {
	ServiceType    ServiceType       `json:"service_type"`
	CredentialName *string           `json:"credential_name,omitempty"`
	Credentials    map[string]string `json:"credentials"`
	Priority       int               `json:"priority,omitempty"`
}

// UpdateCredentialStatusRequest activates or deactivates a credential.
type UpdateCredentialStatusRequest struct {
	Status string `json:"status"`
}

// CredentialResponse excludes the encrypted or raw secrets.
type CredentialResponse struct {
	ID             uuid.UUID   `json:"id"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	ServiceType    ServiceType `json:"service_type"`
	CredentialName string      `json:"credential_name"`
	Status         string      `json:"status"`
	Priority       int         `json:"priority"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// TestCredentialResponse defines the response for testing a credential's validity.
type TestCredentialResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// --- Chats ---

// CreateChatRequest optionally starts the chat with a first user message.
type CreateChatRequest struct {
	Title          string  `json:"title,omitempty"`
	InitialMessage *string `json:"initial_message,omitempty"`
}

// ChatResponse defines the standard representation of a chat in API responses.
type ChatResponse struct {
	ID             uuid.UUID     `json:"id"`
	OrganizationID uuid.UUID     `json:"organization_id"`
	Title          string        `json:"title"`
	Chat           []ChatMessage `json:"chat"`
	Feedback       *int8         `json:"feedback,omitempty"`
	Status         string        `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// ListChatsResponse defines the response structure for listing chats.
type ListChatsResponse struct {
	Chats []ChatResponse `json:"chats"`
}

// AddMessageRequest defines the payload for adding a message to a chat.
type AddMessageRequest struct {
	Message string `json:"message"`
}

// UpdateChatFeedbackRequest defines the payload for updating chat feedback.
type UpdateChatFeedbackRequest struct {
	Feedback int8 `json:"feedback"` // -1 (negative), 0 (neutral), 1 (positive)
}

// ToChatResponse maps the stored chat to its API shape.
func ToChatResponse(c *Chat) ChatResponse {
	msgs := c.Messages
	if msgs == nil {
		msgs = []ChatMessage{}
	}
	return ChatResponse{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		Title:          c.Title,
		Chat:           msgs,
		Feedback:       c.Feedback,
		Status:         c.Status,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
