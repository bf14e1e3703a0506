package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"promptdesk-backend/internal/llm"
	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/weather"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	weatherCacheTTL = 10 * time.Minute
	maxCityLength   = 100
)

// KV is the subset of *redis.Client used for response caching.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// WeatherConfig holds the deployment-wide OpenWeatherMap settings.
type WeatherConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// WeatherService builds weather dashboards. An organization's OPENWEATHER
// credential takes precedence over the deployment key.
type WeatherService struct {
	cfg    WeatherConfig
	creds  CredentialOpener
	gens   GeneratorSource
	cache  KV
	logger *zap.Logger
}

// NewWeatherService creates a WeatherService. cache may be nil.
func NewWeatherService(cfg WeatherConfig, creds CredentialOpener, gens GeneratorSource, cache KV, logger *zap.Logger) *WeatherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeatherService{cfg: cfg, creds: creds, gens: gens, cache: cache, logger: logger.Named("weather")}
}

// Report returns current conditions, the forecast chart and an insight for
// city. Reports are cached per city and units.
func (s *WeatherService) Report(ctx context.Context, orgID uuid.UUID, city, units string) (*models.WeatherReport, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("%w: city is required", ErrValidation)
	}
	if len(city) > maxCityLength {
		return nil, fmt.Errorf("%w: city name is too long", ErrValidation)
	}
	units = strings.ToLower(strings.TrimSpace(units))
	switch units {
	case "":
		units = weather.UnitsMetric
	case weather.UnitsMetric, weather.UnitsImperial:
	default:
		return nil, fmt.Errorf("%w: units must be metric or imperial", ErrValidation)
	}

	apiKey, err := s.apiKey(ctx, orgID)
	if err != nil {
		return nil, err
	}

	// Reports carry an insight written with the org's own credentials.
	key := "weather:" + orgID.String() + ":" + strings.ToLower(city) + ":" + units
	if cached := s.cached(ctx, key); cached != nil {
		return cached, nil
	}

	client := weather.NewClient(s.cfg.BaseURL, apiKey, s.cfg.HTTPClient)
	var (
		cur *weather.CurrentResponse
		fc  *weather.ForecastResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cur, err = client.Current(gctx, city)
		return err
	})
	g.Go(func() error {
		var err error
		fc, err = client.Forecast(gctx, city)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, weather.ErrCityNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		s.logger.Warn("Weather fetch failed", zap.String("city", city), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	report := weather.BuildReport(cur, fc, units)
	report.Insight, report.InsightSource = s.insight(ctx, orgID, report)
	s.store(ctx, key, report)
	return report, nil
}

func (s *WeatherService) apiKey(ctx context.Context, orgID uuid.UUID) (string, error) {
	if s.creds != nil && orgID != uuid.Nil {
		creds, err := s.creds.OpenActiveCredential(ctx, orgID, models.ServiceTypeOpenWeather)
		switch {
		case err == nil && creds["api_key"] != "":
			return creds["api_key"], nil
		case err != nil && !errors.Is(err, ErrCredentialNotFound):
			s.logger.Warn("Opening OpenWeather credential failed", zap.Stringer("org_id", orgID), zap.Error(err))
		}
	}
	if s.cfg.APIKey == "" {
		return "", fmt.Errorf("%w: no OpenWeatherMap API key", ErrUnavailable)
	}
	return s.cfg.APIKey, nil
}

func (s *WeatherService) insight(ctx context.Context, orgID uuid.UUID, r *models.WeatherReport) (string, string) {
	prompt := fmt.Sprintf("Write two short sentences of practical advice for someone in %s. %s", r.City, weather.Insight(r))
	out, err := generateLive(ctx, s.gens.For(ctx, orgID), llm.Request{
		System:      "You are a concise weather presenter.",
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Temperature: 0.4,
		MaxTokens:   120,
		Cache:       true,
	})
	if err != nil {
		s.logger.Debug("Weather insight unavailable", zap.Error(err))
		return weather.Insight(r), models.SourceFallback
	}
	return strings.TrimSpace(out.Text), models.SourceLLM
}

func (s *WeatherService) cached(ctx context.Context, key string) *models.WeatherReport {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("Weather cache read failed", zap.Error(err))
		}
		return nil
	}
	var report models.WeatherReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		s.logger.Warn("Weather cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil
	}
	report.Cached = true
	return &report
}

func (s *WeatherService) store(ctx context.Context, key string, report *models.WeatherReport) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, weatherCacheTTL).Err(); err != nil {
		s.logger.Warn("Weather cache write failed", zap.Error(err))
	}
}
