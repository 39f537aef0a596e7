package auth

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Login methods recorded on a user row.
const (
	LoginMethodGoogle = "google"
	LoginMethodEmail  = "email"
)

// User represents one registered identity.
type User struct {
	ID           uuid.UUID
	OpenID       string
	Name         *string
	Email        *string
	LoginMethod  *string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastSignedIn time.Time
}

// DisplayName returns the name, falling back to the email.
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	if u.Email != nil {
		return *u.Email
	}
	return ""
}

// UserUpsert is a partial identity keyed by OpenID. Nil fields are left untouched
// on update and defaulted on insert.
type UserUpsert struct {
	OpenID       string
	Name         *string
	Email        *string
	LoginMethod  *string
	Role         *Role
	LastSignedIn *time.Time
}

// SessionPayload is the identity asserted by a session token.
type SessionPayload struct {
	OpenID string
	AppID  string
	Name   string
}

// GoogleProfile is the basic profile returned by Google's userinfo endpoint.
type GoogleProfile struct {
	ID    string
	Name  string
	Email string
}

func stringPtr(s string) *string {
	return &s
}

// optionalString returns nil for empty strings.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
