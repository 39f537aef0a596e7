package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryUser struct {
	user         User
	passwordHash string
}

// MemoryStore keeps credentials in an in-process map, ideal for local development or tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*memoryUser
	now   func() time.Time
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*memoryUser),
		now:   time.Now,
	}
}

// UpsertUser creates or partially updates the user keyed by OpenID.
func (s *MemoryStore) UpsertUser(_ context.Context, in UserUpsert) error {
	if in.OpenID == "" {
		return ErrOpenIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertLocked(in)
	return nil
}

// CreateUser inserts a password account, failing with ErrEmailTaken if another
// password account already owns the email.
func (s *MemoryStore) CreateUser(_ context.Context, in UserUpsert, passwordHash string) error {
	if in.OpenID == "" {
		return ErrOpenIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if in.Email != nil {
		for _, existing := range s.users {
			if isPasswordAccount(&existing.user) && sameEmail(existing.user.Email, *in.Email) {
				return ErrEmailTaken
			}
		}
	}

	record := s.upsertLocked(in)
	record.passwordHash = passwordHash
	return nil
}

func (s *MemoryStore) upsertLocked(in UserUpsert) *memoryUser {
	now := s.now()
	signedIn := now
	if in.LastSignedIn != nil {
		signedIn = *in.LastSignedIn
	}

	record, ok := s.users[in.OpenID]
	if !ok {
		role := RoleUser
		if in.Role != nil {
			role = *in.Role
		}
		record = &memoryUser{user: User{
			ID:           uuid.New(),
			OpenID:       in.OpenID,
			Name:         in.Name,
			Email:        in.Email,
			LoginMethod:  in.LoginMethod,
			Role:         role,
			CreatedAt:    now,
			UpdatedAt:    now,
			LastSignedIn: signedIn,
		}}
		s.users[in.OpenID] = record
		return record
	}

	u := &record.user
	if in.Name != nil {
		u.Name = in.Name
	}
	if in.Email != nil {
		u.Email = in.Email
	}
	if in.LoginMethod != nil {
		u.LoginMethod = in.LoginMethod
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	u.LastSignedIn = signedIn
	u.UpdatedAt = now
	return record
}

// GetUserByOpenID returns the user or nil when missing.
func (s *MemoryStore) GetUserByOpenID(_ context.Context, openID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.users[openID]
	if !ok {
		return nil, nil
	}
	u := record.user
	return &u, nil
}

// GetUserByEmail returns a user with the given email, preferring password accounts.
func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var match *User
	for _, record := range s.users {
		if !sameEmail(record.user.Email, email) {
			continue
		}
		if isPasswordAccount(&record.user) {
			u := record.user
			return &u, nil
		}
		if match == nil || record.user.CreatedAt.Before(match.CreatedAt) {
			u := record.user
			match = &u
		}
	}
	return match, nil
}

// SetPasswordHash stores the hash for an existing user. Unknown users are ignored.
func (s *MemoryStore) SetPasswordHash(_ context.Context, openID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.users[openID]; ok {
		record.passwordHash = hash
	}
	return nil
}

// GetPasswordHash returns the stored hash, or "" when there is none.
func (s *MemoryStore) GetPasswordHash(_ context.Context, openID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if record, ok := s.users[openID]; ok {
		return record.passwordHash, nil
	}
	return "", nil
}

func isPasswordAccount(u *User) bool {
	return u.LoginMethod != nil && *u.LoginMethod == LoginMethodEmail
}

func sameEmail(stored *string, email string) bool {
	return stored != nil && strings.EqualFold(strings.TrimSpace(*stored), strings.TrimSpace(email))
}
