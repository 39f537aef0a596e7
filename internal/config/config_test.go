package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "HTTP_PORT", "LOG_LEVEL", "LOG_FORMAT", "DATA_STORE", "DATABASE_URL",
		"ALLOWED_ORIGINS", "VITE_APP_ID", "JWT_SECRET", "SESSION_COOKIE_NAME", "SESSION_TTL",
		"OWNER_OPEN_ID", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "OAUTH_TIMEOUT", "STORE_TIMEOUT",
		"PASSWORD_HASH_CONCURRENCY", "AUTH_RATE_PER_MINUTE", "SEED_DEMO_USER",
		"DATABASE_URL_FILE", "JWT_SECRET_FILE", "GOOGLE_CLIENT_SECRET_FILE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Environment != "development" || !cfg.IsDevelopment() {
		t.Fatalf("expected development environment, got %q", cfg.Environment)
	}
	if cfg.HTTPAddress() != ":8080" {
		t.Fatalf("expected :8080, got %q", cfg.HTTPAddress())
	}
	if !cfg.UseInMemoryStore() {
		t.Fatalf("expected memory store, got %q", cfg.DataStore)
	}
	if cfg.AppID != "revvel-email-organizer" {
		t.Fatalf("unexpected app id %q", cfg.AppID)
	}
	if cfg.SessionCookieName != "app_session_id" {
		t.Fatalf("unexpected cookie name %q", cfg.SessionCookieName)
	}
	if cfg.SessionTTL != 365*24*time.Hour {
		t.Fatalf("expected one year session TTL, got %s", cfg.SessionTTL)
	}
	if cfg.JWTSecret != "" || cfg.GoogleConfigured() {
		t.Fatal("expected secrets to be optional and empty")
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("expected default origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadPortPrefersPORT(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("PORT", "3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.HTTPPort != 3000 {
		t.Fatalf("expected PORT to win, got %d", cfg.HTTPPort)
	}
}

func TestLoadParsesValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATA_STORE", " SQLite ")
	t.Setenv("DATABASE_URL", "file:revvel.db")
	t.Setenv("ALLOWED_ORIGINS", "https://revvel.app, https://www.revvel.app ,")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("OAUTH_TIMEOUT", "3s")
	t.Setenv("AUTH_RATE_PER_MINUTE", "20")
	t.Setenv("SEED_DEMO_USER", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.IsDevelopment() {
		t.Fatal("expected production environment")
	}
	if cfg.DataStore != StoreSQLite {
		t.Fatalf("expected sqlite, got %q", cfg.DataStore)
	}
	if got := strings.Join(cfg.AllowedOrigins, "|"); got != "https://revvel.app|https://www.revvel.app" {
		t.Fatalf("unexpected origins %q", got)
	}
	if !cfg.GoogleConfigured() {
		t.Fatal("expected Google to be configured")
	}
	if cfg.OAuthTimeout != 3*time.Second || cfg.AuthRatePerMinute != 20 || !cfg.SeedDemoUser {
		t.Fatalf("unexpected parsed values: %+v", cfg)
	}
}

func TestLoadRejectsUnknownDataStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_STORE", "mysql")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "DATA_STORE") {
		t.Fatalf("expected DATA_STORE error, got %v", err)
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-port")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestLoadReadsSecretFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "jwt_secret")
	if err := os.WriteFile(path, []byte("from-file\n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("JWT_SECRET_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.JWTSecret != "from-file" {
		t.Fatalf("expected secret file to win, got %q", cfg.JWTSecret)
	}
}

func TestLoadFailsOnMissingSecretFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET_FILE", filepath.Join(t.TempDir(), "missing"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing secret file")
	}
}
