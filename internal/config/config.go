package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Supported DATA_STORE values.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config aggregates runtime configuration for the Revvel API. Every value is
// optional: missing secrets degrade the matching feature to "not configured".
type Config struct {
	Environment    string   `env:"APP_ENV" envDefault:"development"`
	Port           int      `env:"PORT"`
	HTTPPort       int      `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string   `env:"LOG_FORMAT" envDefault:"text"`
	DataStore      string   `env:"DATA_STORE" envDefault:"memory"`
	DatabaseURL    string   `env:"DATABASE_URL"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`

	AppID             string        `env:"VITE_APP_ID" envDefault:"revvel-email-organizer"`
	JWTSecret         string        `env:"JWT_SECRET"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"app_session_id"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"8760h"`
	OwnerOpenID       string        `env:"OWNER_OPEN_ID"`

	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	OAuthTimeout       time.Duration `env:"OAUTH_TIMEOUT" envDefault:"10s"`

	StoreTimeout            time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	PasswordHashConcurrency int           `env:"PASSWORD_HASH_CONCURRENCY" envDefault:"0"`
	AuthRatePerMinute       int           `env:"AUTH_RATE_PER_MINUTE" envDefault:"10"`
	SeedDemoUser            bool          `env:"SEED_DEMO_USER"`
}

// secretFiles holds *_FILE variants whose values are paths to secret files
// (Docker or Kubernetes secrets). They win over the plain variables.
type secretFiles struct {
	DatabaseURL        string `env:"DATABASE_URL_FILE,file"`
	JWTSecret          string `env:"JWT_SECRET_FILE,file"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET_FILE,file"`
}

// Load reads configuration from environment variables with sensible defaults for local development.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	secrets, err := env.ParseAs[secretFiles]()
	if err != nil {
		return Config{}, fmt.Errorf("config: reading secret files: %w", err)
	}
	cfg.DatabaseURL = firstNonEmpty(secrets.DatabaseURL, cfg.DatabaseURL)
	cfg.JWTSecret = firstNonEmpty(secrets.JWTSecret, cfg.JWTSecret)
	cfg.GoogleClientSecret = firstNonEmpty(secrets.GoogleClientSecret, cfg.GoogleClientSecret)

	if cfg.Port != 0 {
		cfg.HTTPPort = cfg.Port
	}
	cfg.DataStore = strings.ToLower(strings.TrimSpace(cfg.DataStore))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.AllowedOrigins = trimAll(cfg.AllowedOrigins)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("config: invalid port %d", c.HTTPPort)
	}
	switch c.DataStore {
	case StoreMemory, StorePostgres, StoreSQLite:
	default:
		return fmt.Errorf("config: DATA_STORE must be memory, postgres or sqlite, got %q", c.DataStore)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive")
	}
	if c.AuthRatePerMinute < 0 {
		return fmt.Errorf("config: AUTH_RATE_PER_MINUTE must not be negative")
	}
	return nil
}

// HTTPAddress returns the address the HTTP server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsDevelopment reports whether the app runs in development mode.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// UseInMemoryStore returns true if the in-memory store should be used.
func (c Config) UseInMemoryStore() bool {
	return c.DataStore == StoreMemory
}

// GoogleConfigured reports whether both Google OAuth credentials are present.
func (c Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
