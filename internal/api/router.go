package api

import (
	"net/http"
	"time"

	"promptdesk-backend/internal/config"
	"promptdesk-backend/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler        *handlers.AuthHandler
	CredentialsHandler *handlers.CredentialsHandler
	ChatHandler        *handlers.ChatHandlers
	StudyHandler       *handlers.StudyHandlers
	ContentHandler     *handlers.ContentHandlers
	WeatherHandler     *handlers.WeatherHandler
	LostFoundHandler   *handlers.LostFoundHandler
	TimeTrackHandler   *handlers.TimeTrackHandler
	// RateLimiter is optional; without redis nothing is limited.
	RateLimiter *RateLimiter
	Config      *config.Config
	Logger      *zap.Logger
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware)
	}

	// --- Public Routes (No JWT Required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/v1/auth", func(r chi.Router) {
		if deps.AuthHandler == nil {
			panic("AuthHandler dependency is nil in router setup")
		}
		r.Post("/signup", deps.AuthHandler.HandleSignup)
		r.Post("/login", deps.AuthHandler.HandleLogin)
	})

	// --- Authenticated Routes (JWT Required) ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(JwtAuthMiddleware(deps.Config.JWTSecret, logger.Named("auth")))

		if deps.CredentialsHandler != nil {
			r.Route("/credentials", func(r chi.Router) {
				r.Post("/", deps.CredentialsHandler.HandleCreateCredential)
				r.Get("/", deps.CredentialsHandler.HandleListCredentials)
				r.Get("/{credentialID}", deps.CredentialsHandler.HandleGetCredential)
				r.Patch("/{credentialID}/status", deps.CredentialsHandler.HandleUpdateCredentialStatus)
				r.Delete("/{credentialID}", deps.CredentialsHandler.HandleDeleteCredential)
				r.Post("/{credentialID}/test", deps.CredentialsHandler.HandleTestCredential)
			})
		} else {
			logger.Warn("CredentialsHandler dependency is nil, skipping /v1/credentials routes")
		}

		if deps.ChatHandler != nil {
			r.Route("/chats", func(r chi.Router) {
				r.Post("/", deps.ChatHandler.HandleCreateChat)
				r.Get("/", deps.ChatHandler.HandleListChats)
				r.Get("/{chatID}", deps.ChatHandler.HandleGetChatByID)
				r.Post("/{chatID}/messages", deps.ChatHandler.HandleAddMessage)
				r.Patch("/{chatID}/feedback", deps.ChatHandler.HandleUpdateFeedback)
			})
		} else {
			logger.Warn("ChatHandler dependency is nil, skipping /v1/chats routes")
		}

		if deps.StudyHandler != nil {
			r.Post("/quiz", deps.StudyHandler.HandleGenerateQuiz)
			r.Post("/quiz/export", deps.StudyHandler.HandleExportQuiz)
			r.Post("/calendar", deps.StudyHandler.HandlePlanCalendar)
		}

		if deps.ContentHandler != nil {
			r.Post("/generate", deps.ContentHandler.HandleGenerate)
			r.Post("/recommendations/score", deps.ContentHandler.HandleScoreRecommendations)
			r.Post("/seo/analyze", deps.ContentHandler.HandleAnalyzeSEO)
		}

		if deps.WeatherHandler != nil {
			r.Get("/weather", deps.WeatherHandler.HandleGetWeather)
		}

		if deps.LostFoundHandler != nil {
			r.Post("/lostfound/chat", deps.LostFoundHandler.HandleChat)
			r.Route("/items", func(r chi.Router) {
				r.Post("/", deps.LostFoundHandler.HandleReportItem)
				r.Get("/", deps.LostFoundHandler.HandleListItems)
			})
		}

		if deps.TimeTrackHandler != nil {
			r.Route("/time", func(r chi.Router) {
				r.Post("/start", deps.TimeTrackHandler.HandleStart)
				r.Post("/stop", deps.TimeTrackHandler.HandleStop)
				r.Get("/current", deps.TimeTrackHandler.HandleCurrent)
				r.Get("/entries", deps.TimeTrackHandler.HandleEntries)
				r.Get("/summary", deps.TimeTrackHandler.HandleSummary)
				r.Get("/export", deps.TimeTrackHandler.HandleExport)
			})
		}
	})

	return r
}
