package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the lifetime of a session token when none is configured.
const DefaultSessionTTL = 365 * 24 * time.Hour

// sessionClaims is the JWT body of a session token.
type sessionClaims struct {
	OpenID string `json:"openId"`
	AppID  string `json:"appId"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// SessionOptions tunes a single token.
type SessionOptions struct {
	Name      string
	ExpiresIn time.Duration
}

// SessionSigner issues and verifies HS256 session tokens. Tokens are not stored
// server-side, so rotating the secret is the only way to revoke them.
type SessionSigner struct {
	secret []byte
	appID  string
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionSigner creates a SessionSigner. An empty secret is rejected with
// ErrSigningNotConfigured.
func NewSessionSigner(secret, appID string, ttl time.Duration) (*SessionSigner, error) {
	if secret == "" {
		return nil, ErrSigningNotConfigured
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionSigner{
		secret: []byte(secret),
		appID:  appID,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the default token lifetime.
func (s *SessionSigner) TTL() time.Duration {
	return s.ttl
}

// CreateSessionToken signs a token for openID that expires after opts.ExpiresIn
// (or the default lifetime).
func (s *SessionSigner) CreateSessionToken(openID string, opts SessionOptions) (string, error) {
	if openID == "" {
		return "", errors.New("session token requires an openId")
	}
	expiresIn := opts.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = s.ttl
	}

	now := s.now()
	claims := sessionClaims{
		OpenID: openID,
		AppID:  s.appID,
		Name:   opts.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}

// VerifySession returns the payload of a valid token and nil for anything else:
// empty, malformed, expired, tampered or signed with another algorithm.
func (s *SessionSigner) VerifySession(token string) *SessionPayload {
	if token == "" {
		return nil
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	var claims sessionClaims
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil
	}

	if claims.OpenID == "" || claims.AppID == "" {
		return nil
	}

	return &SessionPayload{
		OpenID: claims.OpenID,
		AppID:  claims.AppID,
		Name:   claims.Name,
	}
}
