package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"promptdesk-backend/internal/models"
	integration_models "promptdesk-backend/internal/models/integrations"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKV struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
}

func newMemKV() *memKV {
	return &memKV{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (m *memKV) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memKV) Set(_ context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	m.ttl[key] = exp
	return redis.NewStatusResult("OK", nil)
}

type staticOpener map[uuid.UUID]integration_models.DecryptedCredentials

func (o staticOpener) OpenActiveCredential(_ context.Context, orgID uuid.UUID, _ models.ServiceType) (integration_models.DecryptedCredentials, error) {
	creds, ok := o[orgID]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return creds, nil
}

const (
	weatherCurrentJSON = `{"dt":1700000000,"name":"Lyon","timezone":3600,"sys":{"country":"FR"},
"main":{"temp":293.15,"feels_like":292.15,"humidity":40},"wind":{"speed":2},
"weather":[{"main":"Clear","description":"clear sky","icon":"01d"}]}`
	weatherForecastJSON = `{"city":{"name":"Lyon","country":"FR","timezone":3600},"list":[
{"dt":1700006400,"main":{"temp":290.15,"humidity":50},"weather":[{"description":"clear"}]}]}`
)

func weatherServer(t *testing.T, keys *[]string, hits *int32) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		mu.Lock()
		*keys = append(*keys, r.URL.Query().Get("appid"))
		mu.Unlock()
		if r.URL.Query().Get("q") == "Nowhere" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
			return
		}
		switch r.URL.Path {
		case "/weather":
			_, _ = w.Write([]byte(weatherCurrentJSON))
		case "/forecast":
			_, _ = w.Write([]byte(weatherForecastJSON))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWeatherService_ReportAndCache(t *testing.T) {
	var keys []string
	var hits int32
	srv := weatherServer(t, &keys, &hits)
	kv := newMemKV()
	gen := replying(" Enjoy the sun. ")
	svc := NewWeatherService(WeatherConfig{APIKey: "deploy-key", BaseURL: srv.URL, HTTPClient: srv.Client()}, nil, source(gen), kv, nil)

	ctx := context.Background()
	r, err := svc.Report(ctx, testOrg, " Lyon ", "")
	require.NoError(t, err)
	assert.Equal(t, "Lyon", r.City)
	assert.Equal(t, "metric", r.Units)
	assert.Equal(t, 20.0, r.Current.Temperature)
	assert.Equal(t, "Enjoy the sun.", r.Insight)
	assert.Equal(t, models.SourceLLM, r.InsightSource)
	assert.False(t, r.Cached)
	assert.True(t, gen.last().Cache)
	assert.Equal(t, []string{"deploy-key", "deploy-key"}, keys)
	assert.Equal(t, weatherCacheTTL, kv.ttl["weather:"+testOrg.String()+":lyon:metric"])

	again, err := svc.Report(ctx, testOrg, "LYON", "metric")
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, r.Current.Temperature, again.Current.Temperature)
	assert.Equal(t, r.Insight, again.Insight)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	other, err := svc.Report(ctx, uuid.New(), "Lyon", "metric")
	require.NoError(t, err)
	assert.False(t, other.Cached, "another org never reads this org's report")
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
}

func TestWeatherService_InsightFallbackAndOrgKey(t *testing.T) {
	var keys []string
	var hits int32
	srv := weatherServer(t, &keys, &hits)
	opener := staticOpener{testOrg: {"api_key": "org-key"}}
	svc := NewWeatherService(WeatherConfig{BaseURL: srv.URL, HTTPClient: srv.Client()}, opener, source(failingGen()), nil, nil)

	r, err := svc.Report(context.Background(), testOrg, "Lyon", "imperial")
	require.NoError(t, err)
	assert.Equal(t, 68.0, r.Current.Temperature)
	assert.Equal(t, models.SourceFallback, r.InsightSource)
	assert.Contains(t, r.Insight, "68.0°F in Lyon")
	assert.Equal(t, []string{"org-key", "org-key"}, keys)

	// No org credential and no deployment key.
	_, err = svc.Report(context.Background(), uuid.New(), "Lyon", "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestWeatherService_Errors(t *testing.T) {
	var keys []string
	var hits int32
	srv := weatherServer(t, &keys, &hits)
	svc := NewWeatherService(WeatherConfig{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()}, nil, source(failingGen()), nil, nil)
	ctx := context.Background()

	_, err := svc.Report(ctx, testOrg, "Nowhere", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Report(ctx, testOrg, "", "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Report(ctx, testOrg, "Lyon", "kelvin")
	assert.ErrorIs(t, err, ErrValidation)

	broken := NewWeatherService(WeatherConfig{APIKey: "k", BaseURL: srv.URL + "/v9", HTTPClient: srv.Client()}, nil, source(failingGen()), nil, nil)
	_, err = broken.Report(ctx, testOrg, "Lyon", "")
	assert.ErrorIs(t, err, ErrUpstream)
}
