package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name string
	fn   func(ctx context.Context, call int) (*Response, error)

	mu    sync.Mutex
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.fn(ctx, call)
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func answering(name, text string) *fakeProvider {
	return &fakeProvider{name: name, fn: func(context.Context, int) (*Response, error) {
		return &Response{Text: text}, nil
	}}
}

func failing(name string, err error) *fakeProvider {
	return &fakeProvider{name: name, fn: func(context.Context, int) (*Response, error) {
		return nil, err
	}}
}

func newTestChain(providers ...Provider) *Chain {
	return NewChain(providers, WithPolicy(Policy{}), WithMaxAttempts(3), WithCooldown(0, 0))
}

var userHello = Request{Messages: []Message{{Role: RoleUser, Content: "hello"}}}

func TestChain_FirstProviderAnswers(t *testing.T) {
	first := answering("first", "hi there")
	second := answering("second", "unused")

	resp, err := newTestChain(first, second).Generate(context.Background(), userHello)
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Text)
	assert.Equal(t, "first", resp.Provider)
	assert.Equal(t, 0, second.Calls())
}

func TestChain_RetriesRetryableThenFallsThrough(t *testing.T) {
	limited := failing("limited", &ProviderError{Provider: "limited", StatusCode: 429, Retryable: true, Err: errors.New("slow down")})
	backup := answering("backup", "ok")

	resp, err := newTestChain(limited, backup).Generate(context.Background(), userHello)
	require.NoError(t, err)
	assert.Equal(t, "backup", resp.Provider)
	assert.Equal(t, 3, limited.Calls())
}

func TestChain_RecoversOnRetry(t *testing.T) {
	flaky := &fakeProvider{name: "flaky", fn: func(_ context.Context, call int) (*Response, error) {
		if call == 1 {
			return nil, errors.New("connection reset")
		}
		return &Response{Text: "second time lucky"}, nil
	}}

	resp, err := newTestChain(flaky).Generate(context.Background(), userHello)
	require.NoError(t, err)
	assert.Equal(t, "second time lucky", resp.Text)
	assert.Equal(t, 2, flaky.Calls())
}

func TestChain_NonRetryableMovesOnImmediately(t *testing.T) {
	unauthorized := failing("unauthorized", &ProviderError{Provider: "unauthorized", StatusCode: 401, Err: errors.New("bad key")})
	backup := answering("backup", "ok")

	_, err := newTestChain(unauthorized, backup).Generate(context.Background(), userHello)
	require.NoError(t, err)
	assert.Equal(t, 1, unauthorized.Calls())
}

func TestChain_AllFail(t *testing.T) {
	a := failing("a", &ProviderError{Provider: "a", StatusCode: 400, Err: errors.New("bad request")})
	b := answering("b", "   ")

	_, err := newTestChain(a, b).Generate(context.Background(), userHello)
	require.Error(t, err)

	var chainErr *ChainError
	require.True(t, errors.As(err, &chainErr))
	require.Len(t, chainErr.Attempts, 2)
	assert.Contains(t, chainErr.Attempts[0].Error(), "a: status 400")
	assert.True(t, errors.Is(chainErr.Attempts[1], ErrEmptyResponse))
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestChain_AttemptTimeout(t *testing.T) {
	slow := &fakeProvider{name: "slow", fn: func(ctx context.Context, _ int) (*Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	fast := answering("fast", "ok")

	chain := NewChain([]Provider{slow, fast}, WithTimeout(20*time.Millisecond), WithPolicy(Policy{}), WithMaxAttempts(2), WithCooldown(0, 0))
	resp, err := chain.Generate(context.Background(), userHello)
	require.NoError(t, err)
	assert.Equal(t, "fast", resp.Provider)
	assert.Equal(t, 2, slow.Calls(), "a timed out attempt is retried")
}

func TestChain_ParentCancelAbortsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := &fakeProvider{name: "first", fn: func(ctx context.Context, _ int) (*Response, error) {
		cancel()
		return nil, ctx.Err()
	}}
	second := answering("second", "unused")

	_, err := newTestChain(first, second).Generate(ctx, userHello)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, second.Calls())
}

func TestChain_NoProviders(t *testing.T) {
	_, err := NewChain(nil).Generate(context.Background(), userHello)
	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestChain_Cooldown(t *testing.T) {
	broken := failing("broken", &ProviderError{Provider: "broken", StatusCode: 400, Err: errors.New("nope")})
	backup := answering("backup", "ok")

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	chain := NewChain([]Provider{broken, backup}, WithPolicy(Policy{}), WithCooldown(2, time.Minute))
	chain.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_, err := chain.Generate(context.Background(), userHello)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, broken.Calls())

	_, err := chain.Generate(context.Background(), userHello)
	require.NoError(t, err)
	assert.Equal(t, 2, broken.Calls(), "provider is skipped while cooling down")

	now = now.Add(2 * time.Minute)
	_, err = chain.Generate(context.Background(), userHello)
	require.NoError(t, err)
	assert.Equal(t, 3, broken.Calls(), "provider is tried again after the cooldown")
}

func TestChain_CoolingDownProviderStillUsedWhenAlone(t *testing.T) {
	calls := 0
	only := &fakeProvider{name: "only", fn: func(context.Context, int) (*Response, error) {
		calls++
		if calls == 1 {
			return nil, &ProviderError{Provider: "only", StatusCode: 400, Err: errors.New("nope")}
		}
		return &Response{Text: "back"}, nil
	}}
	chain := NewChain([]Provider{only}, WithPolicy(Policy{}), WithCooldown(1, time.Hour))

	_, err := chain.Generate(context.Background(), userHello)
	require.Error(t, err)

	resp, err := chain.Generate(context.Background(), userHello)
	require.NoError(t, err)
	assert.Equal(t, "back", resp.Text)
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]Response
	ttls    map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]Response{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp, ok := m.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return &resp, nil
}

func (m *memoryCache) Set(_ context.Context, key string, resp *Response, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = *resp
	m.ttls[key] = ttl
	return nil
}

func TestChain_Cache(t *testing.T) {
	provider := answering("p", "cached answer")
	cache := newMemoryCache()
	chain := NewChain([]Provider{provider}, WithCache(cache, time.Minute))

	req := userHello
	req.Cache = true

	first, err := chain.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := chain.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, "cached answer", second.Text)
	assert.Equal(t, 1, provider.Calls())
	assert.Equal(t, time.Minute, cache.ttls[CacheKey(req)])

	_, err = chain.Generate(context.Background(), userHello)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.Calls(), "requests without Cache bypass the cache")
}

func TestCacheKey_IgnoresCacheFlag(t *testing.T) {
	a := userHello
	b := userHello
	b.Cache = true
	assert.Equal(t, CacheKey(a), CacheKey(b))

	c := userHello
	c.JSON = true
	assert.NotEqual(t, CacheKey(a), CacheKey(c))
}

func TestChain_Replace(t *testing.T) {
	chain := newTestChain(answering("old", "old"))
	chain.Replace([]Provider{answering("new", "new")})

	assert.Equal(t, []string{"new"}, chain.Names())
	resp, err := chain.Generate(context.Background(), userHello)
	require.NoError(t, err)
	assert.Equal(t, "new", resp.Provider)
}

func TestNewProviderError_Classification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		err       error
		retryable bool
	}{
		{"rate limited", 429, errors.New("x"), true},
		{"server error", 503, errors.New("x"), true},
		{"bad request", 400, errors.New("x"), false},
		{"transport", 0, errors.New("dial tcp: refused"), true},
		{"empty", 0, ErrEmptyResponse, false},
		{"missing key", 0, ErrMissingAPIKey, false},
		{"canceled", 0, context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, newProviderError("p", tt.status, tt.err).Retryable)
		})
	}
}

func TestChain_ProvidersSnapshot(t *testing.T) {
	a, b := answering("a", "x"), answering("b", "y")
	chain := newTestChain(a, b)

	got := chain.Providers()
	require.Len(t, got, 2)
	got[0] = answering("z", "z")
	assert.Equal(t, []string{"a", "b"}, chain.Names())
}

func TestChain_ExtendSharesHealth(t *testing.T) {
	nope := &ProviderError{StatusCode: 400, Err: errors.New("nope")}
	broken := failing("broken", nope)
	backup := answering("backup", "ok")
	global := NewChain([]Provider{broken, backup}, WithPolicy(Policy{}), WithCooldown(1, time.Minute))

	orgA := failing("org:openai:main", nope)
	_, err := global.Extend("a", []Provider{orgA}).Generate(context.Background(), userHello)
	require.NoError(t, err)
	assert.Equal(t, 1, orgA.Calls())
	assert.Equal(t, 1, broken.Calls())

	resp, err := global.Extend("a", []Provider{orgA}).Generate(context.Background(), userHello)
	require.NoError(t, err)
	assert.Equal(t, "backup", resp.Provider)
	assert.Equal(t, 1, orgA.Calls(), "the org provider is still cooling down")
	assert.Equal(t, 1, broken.Calls(), "failures seen by an extended chain count on the global one")

	_, err = global.Generate(context.Background(), userHello)
	require.NoError(t, err)
	assert.Equal(t, 1, broken.Calls())

	orgB := failing("org:openai:main", nope)
	_, err = global.Extend("b", []Provider{orgB}).Generate(context.Background(), userHello)
	require.NoError(t, err)
	assert.Equal(t, 1, orgB.Calls(), "scopes keep their own health")
}

func TestChain_ExtendScopesCache(t *testing.T) {
	shared := answering("shared", "global answer")
	cache := newMemoryCache()
	global := NewChain([]Provider{shared}, WithCache(cache, time.Minute))
	private := answering("private", "org answer")

	req := userHello
	req.Cache = true
	resp, err := global.Extend("a", []Provider{private}).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "org answer", resp.Text)

	resp, err = global.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Equal(t, "global answer", resp.Text)

	resp, err = global.Extend("a", []Provider{private}).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.Cached)
	assert.Equal(t, 1, private.Calls())
}

func TestChain_ExtendKeepsSettings(t *testing.T) {
	slow := &fakeProvider{name: "slow", fn: func(ctx context.Context, _ int) (*Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	global := NewChain([]Provider{answering("backup", "ok")}, WithTimeout(10*time.Millisecond), WithPolicy(Policy{}), WithMaxAttempts(2))

	ext := global.Extend("a", []Provider{slow})
	assert.Equal(t, []string{"slow", "backup"}, ext.Names())
	resp, err := ext.Generate(context.Background(), userHello)
	require.NoError(t, err)
	assert.Equal(t, "backup", resp.Provider)
	assert.Equal(t, 2, slow.Calls(), "the extended chain retries like the global one")
}
