package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout           = 30 * time.Second
	DefaultMaxAttempts       = 2
	DefaultCooldownThreshold = 3
	DefaultCooldownPeriod    = time.Minute
	DefaultCacheTTL          = 10 * time.Minute
)

// Chain tries an ordered list of providers until one answers.
type Chain struct {
	mu        sync.RWMutex
	providers []Provider
	// keys[i] is the health and cache identity of providers[i].
	keys   []string
	scope  string
	health *healthTracker

	timeout           time.Duration
	policy            Policy
	maxAttempts       int
	cooldownThreshold int
	cooldownPeriod    time.Duration
	cache             Cache
	cacheTTL          time.Duration
	logger            *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type providerHealth struct {
	failures      int
	cooldownUntil time.Time
}

// healthTracker holds consecutive failures and cooldowns by provider key. A
// chain and the chains extended from it share one tracker.
type healthTracker struct {
	mu      sync.Mutex
	entries map[string]*providerHealth
}

func newHealthTracker() *healthTracker {
	return &healthTracker{entries: make(map[string]*providerHealth)}
}

func (t *healthTracker) coolingDown(key string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.entries[key]
	return ok && now.Before(h.cooldownUntil)
}

func (t *healthTracker) success(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

// failure records a failed attempt and reports whether it started a cooldown.
func (t *healthTracker) failure(key string, threshold int, until time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.entries[key]
	if !ok {
		h = &providerHealth{}
		t.entries[key] = h
	}
	h.failures++
	if h.failures < threshold {
		return false
	}
	h.cooldownUntil = until
	h.failures = 0
	return true
}

func (t *healthTracker) forget(keys []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range keys {
		delete(t.entries, k)
	}
}

// Option configures a Chain.
type Option func(*Chain)

// WithTimeout bounds every single provider attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Chain) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPolicy sets the backoff used between retries on the same provider.
func WithPolicy(p Policy) Option {
	return func(c *Chain) { c.policy = p }
}

// WithMaxAttempts sets how many times one provider is tried before moving on.
func WithMaxAttempts(n int) Option {
	return func(c *Chain) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithCooldown skips a provider for period after threshold consecutive failures.
// A threshold of zero disables cooldown.
func WithCooldown(threshold int, period time.Duration) Option {
	return func(c *Chain) {
		c.cooldownThreshold = threshold
		c.cooldownPeriod = period
	}
}

// WithCache enables caching for requests that set Cache.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Chain) {
		c.cache = cache
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Chain) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChain creates a chain over providers, in priority order.
func NewChain(providers []Provider, opts ...Option) *Chain {
	c := &Chain{
		health:            newHealthTracker(),
		timeout:           DefaultTimeout,
		policy:            DefaultPolicy(),
		maxAttempts:       DefaultMaxAttempts,
		cooldownThreshold: DefaultCooldownThreshold,
		cooldownPeriod:    DefaultCooldownPeriod,
		cacheTTL:          DefaultCacheTTL,
		logger:            zap.NewNop(),
		now:               time.Now,
		sleep:             sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.providers = append([]Provider(nil), providers...)
	c.keys = names(providers)
	return c
}

// Extend returns a chain that tries front before the current providers of c.
// It runs with the settings of c and shares its provider health, so failures
// of c's providers count on c too. The health and cache entries of front are
// kept under scope, apart from every other scope.
func (c *Chain) Extend(scope string, front []Provider) *Chain {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(front)+len(c.keys))
	for _, p := range front {
		keys = append(keys, scope+"/"+p.Name())
	}
	return &Chain{
		providers:         append(append([]Provider(nil), front...), c.providers...),
		keys:              append(keys, c.keys...),
		scope:             scope,
		health:            c.health,
		timeout:           c.timeout,
		policy:            c.policy,
		maxAttempts:       c.maxAttempts,
		cooldownThreshold: c.cooldownThreshold,
		cooldownPeriod:    c.cooldownPeriod,
		cache:             c.cache,
		cacheTTL:          c.cacheTTL,
		logger:            c.logger,
		now:               c.now,
		sleep:             c.sleep,
	}
}

// Replace swaps the provider list. In-flight calls finish on the old list.
func (c *Chain) Replace(providers []Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := names(providers)
	kept := make(map[string]bool, len(keys))
	for _, k := range keys {
		kept[k] = true
	}
	var dropped []string
	for _, k := range c.keys {
		if !kept[k] {
			dropped = append(dropped, k)
		}
	}
	c.health.forget(dropped)
	c.providers = append([]Provider(nil), providers...)
	c.keys = keys
	c.logger.Info("Provider chain replaced", zap.Strings("providers", keys))
}

// Names lists the configured providers in priority order.
func (c *Chain) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return names(c.providers)
}

// Providers returns a snapshot of the provider list in priority order.
func (c *Chain) Providers() []Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Provider(nil), c.providers...)
}

// Generate runs req through the chain. A cancelled ctx aborts the whole
// chain and returns ctx.Err(); otherwise a failure is a *ChainError.
func (c *Chain) Generate(ctx context.Context, req Request) (*Response, error) {
	providers := c.available()
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}

	var cacheKey string
	if req.Cache && c.cache != nil {
		cacheKey = CacheKey(req)
		if c.scope != "" {
			cacheKey = c.scope + ":" + cacheKey
		}
		cached, err := c.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			cached.Cached = true
			return cached, nil
		case !errors.Is(err, ErrCacheMiss):
			c.logger.Warn("LLM cache read failed", zap.Error(err))
		}
	}

	var attempts []error
	for _, m := range providers {
		p := m.Provider
		for attempt := 0; attempt < c.maxAttempts; attempt++ {
			if attempt > 0 {
				if err := c.sleep(ctx, c.policy.Delay(attempt-1)); err != nil {
					return nil, err
				}
			}

			resp, err := c.try(ctx, p, req)
			if err == nil {
				c.health.success(m.key)
				if cacheKey != "" {
					if err := c.cache.Set(ctx, cacheKey, resp, c.cacheTTL); err != nil {
						c.logger.Warn("LLM cache write failed", zap.Error(err))
					}
				}
				return resp, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			attempts = append(attempts, err)
			c.recordFailure(m)
			c.logger.Warn("Provider attempt failed",
				zap.String("provider", p.Name()),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)

			var pe *ProviderError
			if !errors.As(err, &pe) || !pe.Retryable {
				break
			}
		}
	}
	return nil, &ChainError{Attempts: attempts}
}

func (c *Chain) try(ctx context.Context, p Provider, req Request) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := p.Generate(attemptCtx, req)
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) {
			return nil, pe
		}
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &ProviderError{Provider: p.Name(), Retryable: true, Err: context.DeadlineExceeded}
		}
		return nil, newProviderError(p.Name(), 0, err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrEmptyResponse}
	}
	if resp.Provider == "" {
		resp.Provider = p.Name()
	}
	return resp, nil
}

type member struct {
	Provider
	key string
}

// available returns the providers not cooling down. When every provider is
// cooling down the full list is returned so a request is never refused
// outright.
func (c *Chain) available() []member {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	all := make([]member, len(c.providers))
	out := make([]member, 0, len(c.providers))
	for i, p := range c.providers {
		all[i] = member{Provider: p, key: c.keys[i]}
		if !c.health.coolingDown(c.keys[i], now) {
			out = append(out, all[i])
		}
	}
	if len(out) == 0 {
		return all
	}
	return out
}

func (c *Chain) recordFailure(m member) {
	if c.cooldownThreshold <= 0 {
		return
	}
	if c.health.failure(m.key, c.cooldownThreshold, c.now().Add(c.cooldownPeriod)) {
		c.logger.Warn("Provider cooling down",
			zap.String("provider", m.Name()),
			zap.Duration("period", c.cooldownPeriod),
		)
	}
}

func names(providers []Provider) []string {
	out := make([]string, len(providers))
	for i, p := range providers {
		out[i] = p.Name()
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
