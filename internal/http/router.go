package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"revvel/internal/auth"
	"revvel/internal/config"
	"revvel/internal/metrics"
)

// Dependencies are the collaborators the router wires into handlers. Google,
// Metrics, Gatherer and Limiter are optional.
type Dependencies struct {
	Auth      *auth.Service
	Google    GoogleAuthenticator
	Metrics   *metrics.Collector
	Gatherer  prometheus.Gatherer
	Limiter   *RateLimiter
	StoreName string
}

// NewRouter wires application routes and middleware using chi.
func NewRouter(cfg config.Config, deps Dependencies, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))
	r.Use(newSlogMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
			"store":       deps.StoreName,
		})
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	if !deps.Auth.SigningConfigured() {
		logger.Warn("JWT_SECRET not set; register and login will answer 503")
	}
	if deps.Google == nil {
		logger.Warn("Google OAuth not configured; /api/auth/google redirects to the login page")
	}

	sessionHandler := NewSessionHandler(deps.Auth, deps.Metrics, logger)
	oauthHandler := NewOAuthHandler(deps.Google, deps.Auth, deps.Metrics, logger)

	throttle := func(route string) func(http.Handler) http.Handler {
		if deps.Limiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return deps.Limiter.Middleware(route)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/google", oauthHandler.InitiateGoogle)
			r.Get("/google/callback", oauthHandler.CallbackGoogle)
			r.With(throttle("/api/auth/register")).Post("/register", sessionHandler.Register)
			r.With(throttle("/api/auth/login")).Post("/login", sessionHandler.Login)
			r.Post("/logout", sessionHandler.Logout)
			r.Get("/me", sessionHandler.Me)
		})

		r.Get("/oauth/callback", oauthHandler.LegacyCallback)

		r.Group(func(r chi.Router) {
			r.Use(newAuthMiddleware(deps.Auth, deps.Metrics, logger))
			r.Get("/account", sessionHandler.Account)
		})
	})

	r.NotFound(http.NotFoundHandler().ServeHTTP)

	return r
}
