package auth

import (
	"context"
	"log/slog"
)

// UnavailableStore stands in when no database is reachable. Reads look like
// misses and writes are dropped, so the rest of the app keeps working in demo mode.
type UnavailableStore struct {
	logger *slog.Logger
}

// NewUnavailableStore creates an UnavailableStore that logs every dropped call.
func NewUnavailableStore(logger *slog.Logger) *UnavailableStore {
	return &UnavailableStore{logger: logger}
}

// Available always reports false.
func (s *UnavailableStore) Available() bool { return false }

func (s *UnavailableStore) UpsertUser(_ context.Context, user UserUpsert) error {
	if user.OpenID == "" {
		return ErrOpenIDRequired
	}
	s.warn("cannot upsert user")
	return nil
}

func (s *UnavailableStore) CreateUser(_ context.Context, user UserUpsert, _ string) error {
	if user.OpenID == "" {
		return ErrOpenIDRequired
	}
	s.warn("cannot create user")
	return nil
}

func (s *UnavailableStore) GetUserByOpenID(context.Context, string) (*User, error) {
	s.warn("cannot get user")
	return nil, nil
}

func (s *UnavailableStore) GetUserByEmail(context.Context, string) (*User, error) {
	s.warn("cannot get user by email")
	return nil, nil
}

func (s *UnavailableStore) SetPasswordHash(context.Context, string, string) error {
	s.warn("cannot set password hash")
	return nil
}

func (s *UnavailableStore) GetPasswordHash(context.Context, string) (string, error) {
	s.warn("cannot get password hash")
	return "", nil
}

func (s *UnavailableStore) warn(msg string) {
	if s.logger != nil {
		s.logger.Warn(msg, "error", ErrStoreUnavailable)
	}
}
