package migrate

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"revvel/migrations"
)

// Dialects maps sqlx driver names to goose dialects and migration directories.
var dialects = map[string]string{
	"postgres": "postgres",
	"sqlite3":  "sqlite3",
}

var directories = map[string]string{
	"postgres": "postgres",
	"sqlite3":  "sqlite",
}

// Apply runs any pending SQL migrations bundled with the binary for the
// database's driver.
func Apply(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	driver := db.DriverName()
	dialect, ok := dialects[driver]
	if !ok {
		return fmt.Errorf("migrate: unsupported driver %q", driver)
	}

	goose.SetBaseFS(migrations.Files)
	goose.SetLogger(gooseSlogLogger{logger: logger})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migrate: set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db.DB, directories[driver]); err != nil {
		return fmt.Errorf("migrate: goose up: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return fmt.Errorf("migrate: check goose version: %w", err)
	}
	if logger != nil {
		logger.Info("migrations applied", "dialect", dialect, "version", version)
	}

	return nil
}
