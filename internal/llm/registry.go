package llm

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const KindCanned = "canned"

// Factory builds a provider from its spec.
type Factory func(spec ProviderSpec) (Provider, error)

// Registry maps provider kinds to factories.
type Registry struct {
	factories map[string]Factory
	logger    *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{factories: make(map[string]Factory), logger: logger}
}

// NewDefaultRegistry knows every built-in kind.
func NewDefaultRegistry(logger *zap.Logger) *Registry {
	r := NewRegistry(logger)
	openAIFactory := func(spec ProviderSpec) (Provider, error) { return NewOpenAIProvider(spec) }
	r.Register(KindOpenAI, openAIFactory)
	r.Register(KindDeepSeek, openAIFactory)
	r.Register(KindOllama, openAIFactory)
	r.Register(KindGemini, func(spec ProviderSpec) (Provider, error) { return NewGeminiProvider(spec) })
	r.Register(KindCanned, func(spec ProviderSpec) (Provider, error) {
		return NewCannedProvider(spec.Name, scienceRules, scienceDefaults), nil
	})
	return r
}

// Register adds a factory, overwriting any previous one for kind.
func (r *Registry) Register(kind string, f Factory) {
	if _, exists := r.factories[kind]; exists {
		r.logger.Warn("Provider kind already registered, overwriting", zap.String("kind", kind))
	}
	r.factories[kind] = f
}

func (r *Registry) Get(kind string) (Factory, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("no provider registered for kind: %s", kind)
	}
	return f, nil
}

// Has reports whether kind has a factory.
func (r *Registry) Has(kind string) bool {
	_, ok := r.factories[kind]
	return ok
}

// Build instantiates specs in order. Disabled specs and specs whose API key
// is missing are skipped; any other failure aborts the build.
func (r *Registry) Build(specs []ProviderSpec) ([]Provider, error) {
	providers := make([]Provider, 0, len(specs))
	for _, spec := range specs {
		if !spec.IsEnabled() {
			continue
		}
		f, err := r.Get(spec.Kind)
		if err != nil {
			return nil, err
		}
		p, err := f(spec)
		if errors.Is(err, ErrMissingAPIKey) {
			r.logger.Warn("Skipping provider without API key", zap.String("provider", spec.DisplayName()))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("build provider %s: %w", spec.DisplayName(), err)
		}
		providers = append(providers, p)
	}
	return providers, nil
}

// NewChainFromConfig builds the providers of cfg and wraps them in a chain.
// extra options are applied after the file settings.
func (r *Registry) NewChainFromConfig(cfg *ChainConfig, extra ...Option) (*Chain, error) {
	providers, err := r.Build(cfg.Providers)
	if err != nil {
		return nil, err
	}
	opts := append(cfg.Options(), extra...)
	return NewChain(providers, opts...), nil
}
