package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ai-textbook/backend/internal/auth"
	"github.com/ai-textbook/backend/internal/config"
	"github.com/ai-textbook/backend/internal/gemini"
	"github.com/ai-textbook/backend/internal/handlers"
	"github.com/ai-textbook/backend/internal/middleware"
	"github.com/ai-textbook/backend/internal/repo"
)

// newRouter wires repositories, token service, hasher and handlers into the
// chi router. The provider is injected so tests can swap in a fake instead of
// the real Gemini client.
func newRouter(db *sql.DB, cfg config.Config, provider gemini.Provider) http.Handler {
	userRepo := repo.NewUserRepo(db)
	tokens := auth.NewTokenService(cfg.JWTAlgorithm, []byte(cfg.JWTSecret))
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	authHandler := &handlers.AuthHandler{
		Users:    userRepo,
		Hasher:   hasher,
		Tokens:   tokens,
		TokenTTL: time.Duration(cfg.AccessTokenExpireMinutes) * time.Minute,
	}
	contentHandler := &handlers.ContentHandler{Provider: provider}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	// Health and observability
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public auth endpoints, rate limited per client IP since login burns
	// bcrypt CPU on every attempt.
	authLimiter := middleware.AuthRateLimiter(cfg.RateLimitPerMinute)
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)
	})

	// Protected endpoints
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens, userRepo))
		r.Get("/auth/me", authHandler.Me)
		r.Post("/personalize", contentHandler.Personalize)
		r.Post("/translate", contentHandler.Translate)
		r.Post("/gemini/generate", contentHandler.Generate)
		r.Post("/gemini/chat", contentHandler.Chat)
	})

	return r
}
