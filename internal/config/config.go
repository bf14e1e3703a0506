package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort        string
	DatabaseURL     string
	JWTSecret       string
	TokenExpiration time.Duration
	EncryptionKey   []byte // Raw key bytes (32 for AES-256)

	RedisURL      string
	ProvidersFile string
	LLMTimeout    time.Duration

	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	SlackBotToken      string
	SlackChannelID     string

	LogLevel     string
	RateLimitQPS int
	CORSOrigins  []string
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
// Missing .env files are not an error.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	tokenExpHours, err := getEnvInt("JWT_EXPIRATION_HOURS", 24)
	if err != nil {
		return nil, err
	}
	llmTimeout, err := getEnvInt("LLM_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	qps, err := getEnvInt("RATE_LIMIT_QPS", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", "default-super-secret-key"),
		TokenExpiration:    time.Hour * time.Duration(tokenExpHours),
		RedisURL:           getEnv("REDIS_URL", ""),
		ProvidersFile:      getEnv("PROVIDERS_FILE", ""),
		LLMTimeout:         time.Second * time.Duration(llmTimeout),
		OpenWeatherAPIKey:  getEnv("OPENWEATHER_API_KEY", ""),
		OpenWeatherBaseURL: getEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		SlackBotToken:      getEnv("SLACK_BOT_TOKEN", ""),
		SlackChannelID:     getEnv("SLACK_CHANNEL_ID", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		RateLimitQPS:       qps,
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "https://*,http://*")),
	}

	// Load and decode the Encryption Key (MUST be 64 hex characters for 32 bytes)
	if keyHex := getEnv("ENCRYPTION_KEY", ""); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("decode ENCRYPTION_KEY from hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be 32 bytes (64 hex characters) long, got %d bytes", len(key))
		}
		cfg.EncryptionKey = key
	}

	return cfg, nil
}

// ValidateServer checks the settings the HTTP server cannot start without.
func (c *Config) ValidateServer() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL environment variable is not set"))
	}
	if len(c.EncryptionKey) == 0 {
		errs = append(errs, errors.New("ENCRYPTION_KEY environment variable is not set"))
	}
	return errors.Join(errs...)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", key, raw)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
