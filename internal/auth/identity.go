package auth

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Identity is the provider-specific proof of who a user is. Every login path
// produces one, and OpenID is the only mapping to the storage key.
type Identity interface {
	OpenID() string
	LoginMethod() string
}

// GoogleIdentity is an account authenticated by Google OAuth.
type GoogleIdentity struct {
	ProviderID string
}

// OpenID implements Identity.
func (g GoogleIdentity) OpenID() string { return LoginMethodGoogle + "_" + g.ProviderID }

// LoginMethod implements Identity.
func (g GoogleIdentity) LoginMethod() string { return LoginMethodGoogle }

// EmailIdentity is an email/password account with a random opaque id.
type EmailIdentity struct {
	ID string
}

// OpenID implements Identity.
func (e EmailIdentity) OpenID() string { return LoginMethodEmail + "_" + e.ID }

// LoginMethod implements Identity.
func (e EmailIdentity) LoginMethod() string { return LoginMethodEmail }

// ParseOpenID maps a stored openId back to its Identity.
func ParseOpenID(openID string) (Identity, error) {
	provider, id, found := strings.Cut(openID, "_")
	if !found || id == "" {
		return nil, fmt.Errorf("malformed openId %q", openID)
	}
	switch provider {
	case LoginMethodGoogle:
		return GoogleIdentity{ProviderID: id}, nil
	case LoginMethodEmail:
		return EmailIdentity{ID: id}, nil
	default:
		return nil, fmt.Errorf("unknown identity provider %q", provider)
	}
}

const (
	idAlphabet = "useandom-26T198340PX75pxJACKVERYMINDBUSHWOLF_GQZbfghjklqvwyzrict"
	idLength   = 21
)

// NewEmailIdentity generates a fresh email identity with a 21 character
// URL-safe id (126 bits of entropy).
func NewEmailIdentity() (EmailIdentity, error) {
	id, err := randomID(idLength)
	if err != nil {
		return EmailIdentity{}, err
	}
	return EmailIdentity{ID: id}, nil
}

func randomID(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	// 64 symbols: masking with 63 keeps the distribution uniform.
	out := make([]byte, size)
	for i := range b {
		out[i] = idAlphabet[b[i]&63]
	}
	return string(out), nil
}
