package integrations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"promptdesk-backend/internal/llm"
	"promptdesk-backend/internal/models"
	integration_models "promptdesk-backend/internal/models/integrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGet(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(models.ServiceTypeOpenWeather, NewOpenWeatherIntegration("", nil))

	got, err := r.Get(models.ServiceTypeOpenWeather)
	require.NoError(t, err)
	assert.IsType(t, &OpenWeatherIntegration{}, got)

	_, err = r.Get(models.ServiceTypeSlack)
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestRequireFields(t *testing.T) {
	err := requireFields(integration_models.DecryptedCredentials{"api_key": "  "}, "api_key", "model")
	require.ErrorIs(t, err, ErrMissingCredField)
	assert.Contains(t, err.Error(), "api_key, model")

	assert.NoError(t, requireFields(integration_models.DecryptedCredentials{"api_key": "k"}, "api_key"))
}

func TestSlackValidateCredentials(t *testing.T) {
	s := NewSlackIntegration("", nil)
	assert.ErrorIs(t, s.ValidateCredentials(integration_models.DecryptedCredentials{}), ErrMissingCredField)
	assert.Error(t, s.ValidateCredentials(integration_models.DecryptedCredentials{"bot_token": "xoxp-user"}))
	assert.NoError(t, s.ValidateCredentials(integration_models.DecryptedCredentials{"bot_token": "xoxb-1"}))
}

func TestSlackTestConnection(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		success bool
		msg     string
	}{
		{"ok", `{"ok":true,"team":"Acme","user":"pd-bot","team_id":"T1","user_id":"U1"}`, true, "Connected to Slack workspace 'Acme'"},
		{"invalid auth", `{"ok":false,"error":"invalid_auth"}`, false, "Invalid authentication token"},
		{"not authed", `{"ok":false,"error":"not_authed"}`, false, "Not authenticated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/auth.test", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s := NewSlackIntegration(srv.URL+"/", nil)
			res, err := s.TestConnection(context.Background(), integration_models.DecryptedCredentials{"bot_token": "xoxb-1", "channel_id": "C1"})
			require.NoError(t, err)
			assert.Equal(t, tt.success, res.Success)
			assert.Contains(t, res.Message, tt.msg)
			if tt.success {
				assert.Equal(t, "U1", res.Details["bot_user_id"])
				assert.Equal(t, "C1", res.Details["channel_id"])
			}
		})
	}
}

func TestSlackTestConnectionMissingToken(t *testing.T) {
	res, err := NewSlackIntegration("", nil).TestConnection(context.Background(), integration_models.DecryptedCredentials{})
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestOpenWeatherTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, probeCity, r.URL.Query().Get("q"))
		if r.URL.Query().Get("appid") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
			return
		}
		_, _ = w.Write([]byte(`{"name":"London","main":{"temp":280.0}}`))
	}))
	defer srv.Close()

	o := NewOpenWeatherIntegration(srv.URL, srv.Client())

	res, err := o.TestConnection(context.Background(), integration_models.DecryptedCredentials{"api_key": "good"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "London")

	res, err = o.TestConnection(context.Background(), integration_models.DecryptedCredentials{"api_key": "bad"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "OpenWeather rejected the API key", res.Message)
}

type stubProvider struct {
	err error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(context.Context, llm.Request) (*llm.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Text: "OK", Provider: "stub", Model: "stub-1"}, nil
}

func TestLLMTestConnection(t *testing.T) {
	var gotSpec llm.ProviderSpec
	provider := &stubProvider{}
	reg := llm.NewRegistry(nil)
	reg.Register("openai", func(spec llm.ProviderSpec) (llm.Provider, error) {
		gotSpec = spec
		if spec.APIKey == "" {
			return nil, llm.ErrMissingAPIKey
		}
		return provider, nil
	})
	i := NewLLMIntegration(models.ServiceTypeOpenAI, reg)

	res, err := i.TestConnection(context.Background(), integration_models.DecryptedCredentials{"api_key": "sk-1", "model": "gpt-x"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "stub-1", res.Details["model"])
	assert.Equal(t, "gpt-x", gotSpec.Model)
	assert.Equal(t, "openai", gotSpec.Kind)

	res, err = i.TestConnection(context.Background(), integration_models.DecryptedCredentials{})
	require.NoError(t, err)
	assert.False(t, res.Success)

	provider.err = &llm.ProviderError{Provider: "stub", StatusCode: http.StatusUnauthorized, Err: assert.AnError}
	res, err = i.TestConnection(context.Background(), integration_models.DecryptedCredentials{"api_key": "sk-1"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "OPENAI rejected the API key", res.Message)
}

func TestLLMValidateCredentials(t *testing.T) {
	reg := llm.NewRegistry(nil)
	assert.ErrorIs(t, NewLLMIntegration(models.ServiceTypeGemini, reg).ValidateCredentials(integration_models.DecryptedCredentials{}), ErrMissingCredField)
	assert.NoError(t, NewLLMIntegration(models.ServiceTypeOllama, reg).ValidateCredentials(integration_models.DecryptedCredentials{}))
}

func TestProviderKind(t *testing.T) {
	assert.Equal(t, llm.KindDeepSeek, ProviderKind(models.ServiceTypeDeepSeek))
	assert.Equal(t, llm.KindGemini, ProviderKind(models.ServiceTypeGemini))
}
