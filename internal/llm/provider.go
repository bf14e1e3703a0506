// Package llm provides the provider chain every LLM-backed feature goes
// through: an ordered list of providers tried under one timeout and backoff
// policy, with an optional response cache.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrNoProviders   = errors.New("no LLM providers configured")
	ErrEmptyResponse = errors.New("provider returned an empty response")
	ErrUnsupported   = errors.New("request not supported by provider")
	ErrMissingAPIKey = errors.New("provider API key is not set")
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral generation request.
type Request struct {
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	JSON        bool      `json:"json,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	// Cache allows the chain to serve and store this request in its cache.
	Cache bool `json:"-"`
}

// LastUserMessage returns the content of the most recent user turn.
func (r Request) LastUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// Response is what a provider (or the chain) produced.
type Response struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	Cached   bool   `json:"cached,omitempty"`
}

// Generator produces a response for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Provider is a named Generator backed by one upstream API.
type Provider interface {
	Generator
	Name() string
}

// ProviderError describes a failed call to a single provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ChainError is returned when every provider in the chain failed.
// Attempts holds one error per attempt, in the order they were made.
type ChainError struct {
	Attempts []error
}

func (e *ChainError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrNoProviders.Error()
	}
	parts := make([]string, len(e.Attempts))
	for i, err := range e.Attempts {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("all LLM providers failed after %d attempts: %s", len(e.Attempts), strings.Join(parts, "; "))
}

func (e *ChainError) Unwrap() []error { return e.Attempts }

// IsRetryableStatus reports whether an HTTP status is worth retrying on the
// same provider.
func IsRetryableStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}

// newProviderError classifies err for provider name. Deadline errors and
// retryable statuses are marked retryable.
func newProviderError(name string, status int, err error) *ProviderError {
	retryable := IsRetryableStatus(status)
	if status == 0 {
		// Transport failures and timeouts carry no status.
		retryable = true
		for _, permanent := range []error{ErrEmptyResponse, ErrUnsupported, ErrMissingAPIKey, context.Canceled} {
			if errors.Is(err, permanent) {
				retryable = false
			}
		}
	}
	return &ProviderError{Provider: name, StatusCode: status, Retryable: retryable, Err: err}
}
