package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"promptdesk-backend/internal/auth"
	"promptdesk-backend/pkg/httputil"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- JWT Middleware ---

// JwtAuthMiddleware verifies the JWT token from the Authorization header.
// If valid, it injects UserID and OrgID into the request context.
func JwtAuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				httputil.RespondError(w, http.StatusUnauthorized, "Malformed Authorization header (Expected: Bearer <token>)")
				return
			}

			claims, err := auth.ParseAccessToken(parts[1], jwtSecret)
			if err != nil {
				logger.Debug("Rejected access token", zap.String("path", r.URL.Path), zap.Error(err))
				if errors.Is(err, auth.ErrTokenExpired) {
					httputil.RespondError(w, http.StatusUnauthorized, "Token has expired")
				} else {
					httputil.RespondError(w, http.StatusUnauthorized, "Invalid token")
				}
				return
			}

			if claims.UserID == uuid.Nil || claims.OrgID == uuid.Nil {
				httputil.RespondError(w, http.StatusUnauthorized, "Invalid token claims (missing IDs)")
				return
			}

			ctx := auth.WithIdentity(r.Context(), claims.UserID, claims.OrgID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// --- Request logging ---

// RequestLogger logs one line per request once it has been served.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				}
				if status >= http.StatusInternalServerError {
					logger.Warn("Request served", fields...)
					return
				}
				logger.Info("Request served", fields...)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// --- Rate limiting ---

// Counter is the subset of *redis.Client the rate limiter needs.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimiter allows qps requests per client IP and second. Counters live in
// redis so every replica shares them. Redis errors let the request through.
type RateLimiter struct {
	counter Counter
	qps     int
	logger  *zap.Logger
	now     func() time.Time
}

func NewRateLimiter(counter Counter, qps int, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{counter: counter, qps: qps, logger: logger.Named("ratelimit"), now: time.Now}
}

// Allow counts one request from ip in the current second.
func (l *RateLimiter) Allow(ctx context.Context, ip string) bool {
	key := "ratelimit:" + ip + ":" + strconv.FormatInt(l.now().Unix(), 10)
	n, err := l.counter.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("Rate limit counter unavailable", zap.Error(err))
		return true
	}
	if n == 1 {
		if err := l.counter.Expire(ctx, key, 2*time.Second).Err(); err != nil {
			l.logger.Warn("Setting rate limit expiry failed", zap.String("key", key), zap.Error(err))
		}
	}
	return n <= int64(l.qps)
}

// Middleware rejects requests over the limit with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(r.Context(), clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			httputil.RespondError(w, http.StatusTooManyRequests, "Too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP expects middleware.RealIP to have run first.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
