package main

import (
	"context"
	"fmt"
	"log/slog"

	"revvel/internal/auth"
)

const (
	demoEmail    = "demo@revvel.app"
	demoName     = "Demo User"
	demoPassword = "revvel-demo"
)

// seedDemoUser creates a password account for local development. Running it
// again only refreshes the password.
func seedDemoUser(ctx context.Context, store auth.Store, hasher *auth.Hasher, logger *slog.Logger) error {
	existing, err := store.GetUserByEmail(ctx, demoEmail)
	if err != nil {
		return fmt.Errorf("find demo user: %w", err)
	}

	var openID string
	if existing != nil {
		openID = existing.OpenID
	} else {
		identity, err := auth.NewEmailIdentity()
		if err != nil {
			return err
		}
		openID = identity.OpenID()
		name, email, method := demoName, demoEmail, auth.LoginMethodEmail
		if err := store.UpsertUser(ctx, auth.UserUpsert{
			OpenID:      openID,
			Name:        &name,
			Email:       &email,
			LoginMethod: &method,
		}); err != nil {
			return fmt.Errorf("create demo user: %w", err)
		}
	}

	hash, err := hasher.Hash(ctx, demoPassword)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}
	if err := store.SetPasswordHash(ctx, openID, hash); err != nil {
		return fmt.Errorf("store demo password: %w", err)
	}

	logger.Info("seeded demo user", "email", demoEmail, "password", demoPassword)
	return nil
}
