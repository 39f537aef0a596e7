package migrate

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"revvel/internal/platform/database"
)

func TestApplySQLiteCreatesUsersTable(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("NewSQLite returned error: %v", err)
	}
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := Apply(ctx, db, logger); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		t.Fatalf("users table missing: %v", err)
	}

	// Running twice is a no-op.
	if err := Apply(ctx, db, logger); err != nil {
		t.Fatalf("second Apply returned error: %v", err)
	}
}
