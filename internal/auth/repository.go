package auth

import (
	"context"
	"time"
)

// Store defines the interface for credential persistence.
type Store interface {
	// User operations
	UpsertUser(ctx context.Context, user UserUpsert) error
	CreateUser(ctx context.Context, user UserUpsert, passwordHash string) error
	GetUserByOpenID(ctx context.Context, openID string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Password operations
	SetPasswordHash(ctx context.Context, openID, hash string) error
	GetPasswordHash(ctx context.Context, openID string) (string, error)
}

// StoreAvailable reports whether store can persist users. Stores that do not
// say otherwise are assumed available.
func StoreAvailable(store Store) bool {
	a, ok := store.(interface{ Available() bool })
	return !ok || a.Available()
}

// timeoutStore bounds every call of the wrapped Store with a deadline.
type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout wraps store so that each operation runs with the given deadline.
// A non-positive timeout returns store unchanged.
func WithTimeout(store Store, timeout time.Duration) Store {
	if timeout <= 0 {
		return store
	}
	return &timeoutStore{next: store, timeout: timeout}
}

func (s *timeoutStore) Available() bool { return StoreAvailable(s.next) }

func (s *timeoutStore) UpsertUser(ctx context.Context, user UserUpsert) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.UpsertUser(ctx, user)
}

func (s *timeoutStore) CreateUser(ctx context.Context, user UserUpsert, passwordHash string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.CreateUser(ctx, user, passwordHash)
}

func (s *timeoutStore) GetUserByOpenID(ctx context.Context, openID string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.GetUserByOpenID(ctx, openID)
}

func (s *timeoutStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.GetUserByEmail(ctx, email)
}

func (s *timeoutStore) SetPasswordHash(ctx context.Context, openID, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.SetPasswordHash(ctx, openID, hash)
}

func (s *timeoutStore) GetPasswordHash(ctx context.Context, openID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.GetPasswordHash(ctx, openID)
}
