package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatCompletionRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role string `json:"role"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func newOpenAIServer(t *testing.T, status int, content string, seen *chatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"rate limit reached"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{"index": 0, "finish_reason": "stop", "message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProvider_Generate(t *testing.T) {
	var seen chatCompletionRequest
	srv := newOpenAIServer(t, http.StatusOK, `{"answer": 42}`, &seen)

	p, err := NewOpenAIProvider(ProviderSpec{Name: "primary", Kind: KindOpenAI, BaseURL: srv.URL, APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "primary", p.Name())

	resp, err := p.Generate(context.Background(), Request{
		System:   "Reply in JSON.",
		Messages: []Message{{Role: RoleUser, Content: "the answer?"}},
		JSON:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"answer": 42}`, resp.Text)
	assert.Equal(t, "gpt-4o-mini", resp.Model)

	assert.Equal(t, "gpt-4o-mini", seen.Model)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, "user", seen.Messages[1].Role)
	require.NotNil(t, seen.ResponseFormat)
	assert.Equal(t, "json_object", seen.ResponseFormat.Type)
}

func TestOpenAIProvider_RateLimitIsRetryable(t *testing.T) {
	srv := newOpenAIServer(t, http.StatusTooManyRequests, "", nil)

	p, err := NewOpenAIProvider(ProviderSpec{Kind: KindDeepSeek, BaseURL: srv.URL, APIKey: "sk-test"})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "deepseek", pe.Provider)
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
	assert.True(t, pe.Retryable)
}

func TestNewOpenAIProvider_Keys(t *testing.T) {
	t.Setenv("PD_TEST_EMPTY_KEY", "")

	_, err := NewOpenAIProvider(ProviderSpec{Kind: KindOpenAI, APIKeyEnv: "PD_TEST_EMPTY_KEY"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	p, err := NewOpenAIProvider(ProviderSpec{Kind: KindOllama})
	require.NoError(t, err, "ollama runs without a key")
	assert.Equal(t, "llama3.1", p.model)

	_, err = NewOpenAIProvider(ProviderSpec{Kind: "anthropic", APIKey: "x"})
	assert.Error(t, err)
}

func TestStatusFromError(t *testing.T) {
	assert.Equal(t, 503, statusFromError(errors.New("API returned unexpected status code: 503: overloaded")))
	assert.Equal(t, 0, statusFromError(errors.New("dial tcp 127.0.0.1:1: connect: connection refused")))
}
