package llm

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderSpec describes one entry of the provider chain.
type ProviderSpec struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	// APIKey is set for organisation credentials; file entries use APIKeyEnv.
	APIKey    string `yaml:"-"`
	APIKeyEnv string `yaml:"api_key_env"`
	Enabled   *bool  `yaml:"enabled"`
}

// DisplayName is the configured name, or the kind when unnamed.
func (s ProviderSpec) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Kind
}

func (s ProviderSpec) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

func (s ProviderSpec) ResolveAPIKey() string {
	if s.APIKey != "" {
		return s.APIKey
	}
	if s.APIKeyEnv != "" {
		return os.Getenv(s.APIKeyEnv)
	}
	return ""
}

// CooldownConfig mirrors WithCooldown.
type CooldownConfig struct {
	Threshold int           `yaml:"threshold"`
	Period    time.Duration `yaml:"period"`
}

// RetryConfig combines attempts per provider with the backoff between them.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	Policy      `yaml:",inline"`
}

// ChainConfig is the on-disk form of a provider chain.
type ChainConfig struct {
	Timeout   time.Duration   `yaml:"timeout"`
	Retry     RetryConfig     `yaml:"retry"`
	Cooldown  *CooldownConfig `yaml:"cooldown"`
	Providers []ProviderSpec  `yaml:"providers"`
}

// DefaultChainConfig derives a chain from well-known environment keys in the
// order OpenAI, Gemini, DeepSeek, Ollama, with canned answers last.
func DefaultChainConfig(timeout time.Duration) *ChainConfig {
	cfg := &ChainConfig{
		Timeout: timeout,
		Retry:   RetryConfig{MaxAttempts: DefaultMaxAttempts, Policy: DefaultPolicy()},
	}
	envKinds := []struct{ kind, keyEnv string }{
		{KindOpenAI, "OPENAI_API_KEY"},
		{KindGemini, "GEMINI_API_KEY"},
		{KindDeepSeek, "DEEPSEEK_API_KEY"},
	}
	for _, k := range envKinds {
		if os.Getenv(k.keyEnv) != "" {
			cfg.Providers = append(cfg.Providers, ProviderSpec{Kind: k.kind, APIKeyEnv: k.keyEnv})
		}
	}
	if base := os.Getenv("OLLAMA_BASE_URL"); base != "" {
		cfg.Providers = append(cfg.Providers, ProviderSpec{Kind: KindOllama, BaseURL: base, Model: os.Getenv("OLLAMA_MODEL")})
	}
	cfg.Providers = append(cfg.Providers, ProviderSpec{Kind: KindCanned})
	return cfg
}

// LoadChainConfig reads a YAML provider file.
func LoadChainConfig(path string) (*ChainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read provider file: %w", err)
	}
	return ParseChainConfig(data)
}

func ParseChainConfig(data []byte) (*ChainConfig, error) {
	var cfg ChainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse provider file: %w", err)
	}
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("provider file lists no providers: %w", ErrNoProviders)
	}
	for i, p := range cfg.Providers {
		if p.Kind == "" {
			return nil, fmt.Errorf("provider %d (%q) has no kind", i, p.Name)
		}
	}
	return &cfg, nil
}

// Options turns the file settings into chain options.
func (c *ChainConfig) Options() []Option {
	var opts []Option
	if c.Timeout > 0 {
		opts = append(opts, WithTimeout(c.Timeout))
	}
	if c.Retry.MaxAttempts > 0 {
		opts = append(opts, WithMaxAttempts(c.Retry.MaxAttempts))
	}
	if c.Retry.Initial > 0 {
		opts = append(opts, WithPolicy(c.Retry.Policy))
	}
	if c.Cooldown != nil {
		opts = append(opts, WithCooldown(c.Cooldown.Threshold, c.Cooldown.Period))
	}
	return opts
}
