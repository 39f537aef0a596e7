package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"revvel/internal/auth"
	"revvel/internal/config"
	transporthttp "revvel/internal/http"
	"revvel/internal/metrics"
	"revvel/internal/platform/database"
	"revvel/internal/platform/logging"
	"revvel/internal/platform/migrate"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	store, cleanup := buildStore(ctx, cfg, logger)
	if cleanup != nil {
		defer cleanup()
	}
	storeName := storeLabel(store, cfg.DataStore)

	hasher := auth.NewHasher(cfg.PasswordHashConcurrency)
	if cfg.SeedDemoUser {
		if err := seedDemoUser(ctx, store, hasher, logger); err != nil {
			logger.Warn("failed to seed demo user", "error", err)
		}
	}

	authService := auth.NewService(
		auth.WithTimeout(store, cfg.StoreTimeout),
		hasher,
		buildSigner(cfg, logger),
		auth.WithCookieName(cfg.SessionCookieName),
		auth.WithOwnerOpenID(cfg.OwnerOpenID),
		auth.WithLogger(logger),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	var limiter *transporthttp.RateLimiter
	if cfg.AuthRatePerMinute > 0 {
		limiter = transporthttp.NewRateLimiter(cfg.AuthRatePerMinute, collector)
		defer limiter.Stop()
	}

	router := transporthttp.NewRouter(cfg, transporthttp.Dependencies{
		Auth:      authService,
		Google:    buildGoogle(ctx, cfg, logger),
		Metrics:   collector,
		Gatherer:  registry,
		Limiter:   limiter,
		StoreName: storeName,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("Revvel API listening", "addr", srv.Addr, "store", storeName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// buildStore selects the credential store. A SQL store that cannot be reached
// degrades to UnavailableStore so the app still serves in demo mode.
func buildStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (auth.Store, func()) {
	if cfg.UseInMemoryStore() {
		logger.Info("using in-memory credential store")
		return auth.NewMemoryStore(), nil
	}

	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set; credential store unavailable", "data_store", cfg.DataStore)
		return auth.NewUnavailableStore(logger), nil
	}

	var (
		db  *sqlx.DB
		err error
	)
	if cfg.DataStore == config.StoreSQLite {
		db, err = database.NewSQLite(ctx, cfg.DatabaseURL)
	} else {
		db, err = database.NewPostgres(ctx, cfg.DatabaseURL)
	}
	if err != nil {
		logger.Warn("database connection failed; credential store unavailable", "data_store", cfg.DataStore, "error", err)
		return auth.NewUnavailableStore(logger), nil
	}

	cleanup := func() {
		_ = db.Close()
	}

	if err := migrate.Apply(ctx, db, logger); err != nil {
		cleanup()
		logger.Warn("migrations failed; credential store unavailable", "error", err)
		return auth.NewUnavailableStore(logger), nil
	}

	logger.Info("connected to database", "data_store", cfg.DataStore)
	return auth.NewSQLStore(db), cleanup
}

// storeLabel names the store reported by /health.
func storeLabel(store auth.Store, configured string) string {
	if !auth.StoreAvailable(store) {
		return "unavailable"
	}
	return configured
}

// buildSigner returns nil when no secret is configured outside development,
// which makes session-issuing endpoints answer "not configured".
func buildSigner(cfg config.Config, logger *slog.Logger) *auth.SessionSigner {
	secret := cfg.JWTSecret
	if secret == "" && cfg.IsDevelopment() {
		ephemeral := make([]byte, 32)
		if _, err := rand.Read(ephemeral); err != nil {
			logger.Error("failed to generate development session secret", "error", err)
			return nil
		}
		secret = hex.EncodeToString(ephemeral)
		logger.Warn("JWT_SECRET not set; using an ephemeral secret, sessions end on restart")
	}

	signer, err := auth.NewSessionSigner(secret, cfg.AppID, cfg.SessionTTL)
	if err != nil {
		logger.Warn("session signing disabled", "error", err)
		return nil
	}
	return signer
}

// buildGoogle returns a nil interface, not a nil *GoogleClient, when Google
// OAuth is not configured.
func buildGoogle(ctx context.Context, cfg config.Config, logger *slog.Logger) transporthttp.GoogleAuthenticator {
	if !cfg.GoogleConfigured() {
		logger.Info("google sign-in disabled", "reason", "GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set")
		return nil
	}
	client, err := auth.NewGoogleClient(ctx, auth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Timeout:      cfg.OAuthTimeout,
	})
	if err != nil {
		logger.Info("google sign-in disabled", "reason", err)
		return nil
	}
	return client
}
