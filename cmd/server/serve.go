package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"promptdesk-backend/internal/api"
	"promptdesk-backend/internal/config"
	"promptdesk-backend/internal/crypto"
	"promptdesk-backend/internal/handlers"
	"promptdesk-backend/internal/integrations"
	"promptdesk-backend/internal/llm"
	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/notify"
	"promptdesk-backend/internal/seo"
	"promptdesk-backend/internal/services"
	"promptdesk-backend/internal/store/postgres"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const llmCacheTTL = time.Hour

type serveOptions struct {
	migrate bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "apply the database schema before serving")
	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	// 1. Load Configuration
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Info("Starting PromptDesk backend", zap.String("port", cfg.HTTPPort))

	// 2. Initialize Database Connection Pool
	pool, err := openPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	pgStore := postgres.NewPostgresStore(pool, logger)
	if opts.migrate {
		if err := pgStore.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("Schema applied")
	}

	// 3. Optional redis for caches and rate limiting
	rdb := openRedis(ctx, cfg.RedisURL, logger)
	if rdb != nil {
		defer rdb.Close()
	}

	// 4. LLM providers
	llmRegistry := llm.NewDefaultRegistry(logger)
	chain, err := buildChain(cfg, llmRegistry, rdb, logger)
	if err != nil {
		return err
	}
	logger.Info("LLM chain configured", zap.Strings("providers", chain.Names()))
	if cfg.ProvidersFile != "" {
		watcher := llm.NewWatcher(cfg.ProvidersFile, chain, llmRegistry, logger.Named("llm.watcher"))
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("Provider file watcher stopped", zap.Error(err))
			}
		}()
	}

	// 5. Credentials and integrations
	sealer, err := crypto.NewSealer(cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to create credential sealer: %w", err)
	}
	httpClient := &http.Client{Timeout: 15 * time.Second}

	intRegistry := integrations.NewRegistry(logger)
	for _, st := range []models.ServiceType{
		models.ServiceTypeOpenAI,
		models.ServiceTypeGemini,
		models.ServiceTypeDeepSeek,
		models.ServiceTypeOllama,
	} {
		intRegistry.Register(st, integrations.NewLLMIntegration(st, llmRegistry))
	}
	intRegistry.Register(models.ServiceTypeOpenWeather, integrations.NewOpenWeatherIntegration(cfg.OpenWeatherBaseURL, httpClient))
	intRegistry.Register(models.ServiceTypeSlack, integrations.NewSlackIntegration("", logger))

	var notifier notify.Notifier = notify.Nop{}
	if cfg.SlackBotToken != "" {
		slackNotifier, err := notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannelID, "", logger)
		if err != nil {
			logger.Warn("Slack notifications disabled", zap.Error(err))
		} else {
			notifier = slackNotifier
		}
	}

	// 6. Services
	credService := services.NewCredentialsService(pgStore, sealer, intRegistry, logger)
	resolver := services.NewChainResolver(pgStore, sealer, llmRegistry, chain, logger)

	var weatherCache services.KV
	if rdb != nil {
		weatherCache = rdb
	}
	weatherService := services.NewWeatherService(services.WeatherConfig{
		APIKey:     cfg.OpenWeatherAPIKey,
		BaseURL:    cfg.OpenWeatherBaseURL,
		HTTPClient: httpClient,
	}, credService, resolver, weatherCache, logger)

	// 7. Handlers and router
	routerDeps := api.RouterDependencies{
		AuthHandler:        handlers.NewAuthHandler(services.NewAuthService(pgStore, cfg, logger), logger),
		CredentialsHandler: handlers.NewCredentialsHandler(credService, logger),
		ChatHandler:        handlers.NewChatHandlers(services.NewChatService(pgStore, resolver, llm.NewScienceCanned(), logger), logger),
		StudyHandler: handlers.NewStudyHandlers(
			services.NewQuizService(resolver, logger),
			services.NewCalendarService(resolver, logger),
			logger,
		),
		ContentHandler: handlers.NewContentHandlers(
			services.NewGenerateService(resolver, logger),
			services.NewRecommendService(resolver, logger),
			services.NewSEOService(resolver, seo.NewFetcher(httpClient), logger),
			logger,
		),
		WeatherHandler:   handlers.NewWeatherHandler(weatherService, logger),
		LostFoundHandler: handlers.NewLostFoundHandler(services.NewLostFoundService(pgStore, resolver, notifier, logger), logger),
		TimeTrackHandler: handlers.NewTimeTrackHandler(services.NewTimeTrackService(pgStore, logger), logger),
		Config:           cfg,
		Logger:           logger,
	}
	if rdb != nil && cfg.RateLimitQPS > 0 {
		routerDeps.RateLimiter = api.NewRateLimiter(rdb, cfg.RateLimitQPS, logger)
	}
	router := api.NewRouter(routerDeps)

	// 8. Configure and Start HTTP Server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("could not listen on %s: %w", server.Addr, err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received, initiating graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server graceful shutdown failed: %w", err)
	}
	logger.Info("Server shutdown complete")
	return nil
}

// buildChain creates the global provider chain from the provider file, or
// from the environment when there is none.
func buildChain(cfg *config.Config, registry *llm.Registry, rdb *redis.Client, logger *zap.Logger) (*llm.Chain, error) {
	chainCfg := llm.DefaultChainConfig(cfg.LLMTimeout)
	if cfg.ProvidersFile != "" {
		fileCfg, err := llm.LoadChainConfig(cfg.ProvidersFile)
		if err != nil {
			return nil, err
		}
		if fileCfg.Timeout == 0 {
			fileCfg.Timeout = cfg.LLMTimeout
		}
		chainCfg = fileCfg
	}

	opts := []llm.Option{llm.WithLogger(logger)}
	if rdb != nil {
		opts = append(opts, llm.WithCache(llm.NewRedisCache(rdb), llmCacheTTL))
	}
	chain, err := registry.NewChainFromConfig(chainCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build LLM chain: %w", err)
	}
	return chain, nil
}

// openRedis returns nil when redis is not configured or not reachable.
func openRedis(ctx context.Context, url string, logger *zap.Logger) *redis.Client {
	if url == "" {
		logger.Info("REDIS_URL not set, caching and rate limiting disabled")
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("Invalid REDIS_URL, caching and rate limiting disabled", zap.Error(err))
		return nil
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unreachable, caching and rate limiting disabled", zap.Error(err))
		_ = rdb.Close()
		return nil
	}
	logger.Info("Redis connected", zap.String("addr", opt.Addr))
	return rdb
}
