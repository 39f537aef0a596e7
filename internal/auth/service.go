package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultCookieName is the session cookie used when none is configured.
const DefaultCookieName = "app_session_id"

// Service turns proven identities into sessions and sessions back into users.
type Service struct {
	store       Store
	hasher      *Hasher
	signer      *SessionSigner
	cookieName  string
	ownerOpenID string
	logger      *slog.Logger
	now         func() time.Time

	decoyMu sync.Mutex
	decoy   string
}

// Option configures a Service.
type Option func(*Service)

// WithCookieName sets the session cookie read by AuthenticateRequest.
func WithCookieName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.cookieName = name
		}
	}
}

// WithOwnerOpenID grants the admin role to the given openId on upsert.
func WithOwnerOpenID(openID string) Option {
	return func(s *Service) {
		s.ownerOpenID = openID
	}
}

// WithLogger sets the logger used for best-effort side effects.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a new auth Service. signer may be nil, in which case every
// session-issuing operation fails with ErrSigningNotConfigured.
func NewService(store Store, hasher *Hasher, signer *SessionSigner, opts ...Option) *Service {
	if hasher == nil {
		hasher = NewHasher(0)
	}
	s := &Service{
		store:      store,
		hasher:     hasher,
		signer:     signer,
		cookieName: DefaultCookieName,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput is the payload of an email/password registration.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// LoginInput is the payload of an email/password login.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is a freshly authenticated identity plus its session token.
// It never carries the password hash.
type AuthResult struct {
	OpenID string
	Name   *string
	Email  *string
	Token  string
}

// CookieName returns the session cookie name.
func (s *Service) CookieName() string {
	return s.cookieName
}

// SessionTTL returns the lifetime of issued session tokens.
func (s *Service) SessionTTL() time.Duration {
	if s.signer == nil {
		return DefaultSessionTTL
	}
	return s.signer.TTL()
}

// SigningConfigured reports whether sessions can be issued.
func (s *Service) SigningConfigured() bool {
	return s.signer != nil
}

// Register creates an email/password account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.TrimSpace(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || in.Password == "" {
		return nil, newValidationError("Email and password are required")
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if s.signer == nil {
		return nil, ErrSigningNotConfigured
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	identity, err := NewEmailIdentity()
	if err != nil {
		return nil, err
	}

	now := s.now()
	upsert := UserUpsert{
		OpenID:       identity.OpenID(),
		Name:         optionalString(name),
		Email:        stringPtr(email),
		LoginMethod:  stringPtr(identity.LoginMethod()),
		Role:         s.roleFor(identity.OpenID()),
		LastSignedIn: &now,
	}
	if err := s.store.CreateUser(ctx, upsert, passwordHash); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	displayName := name
	if displayName == "" {
		displayName = email
	}
	token, err := s.signer.CreateSessionToken(identity.OpenID(), SessionOptions{Name: displayName})
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		OpenID: identity.OpenID(),
		Name:   stringPtr(displayName),
		Email:  stringPtr(email),
		Token:  token,
	}, nil
}

// Login signs in an email/password account. Unknown emails and wrong passwords
// both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, newValidationError("Email and password are required")
	}
	if s.signer == nil {
		return nil, ErrSigningNotConfigured
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		// Spend the same scrypt work as a real check so response time does not
		// reveal whether the email exists.
		_, _ = s.hasher.Verify(ctx, in.Password, s.decoyRecord(ctx))
		return nil, ErrInvalidCredentials
	}

	storedHash, err := s.store.GetPasswordHash(ctx, user.OpenID)
	if err != nil {
		return nil, fmt.Errorf("get password hash: %w", err)
	}
	if storedHash == "" {
		return nil, ErrUseGoogleLogin
	}

	valid, err := s.hasher.Verify(ctx, in.Password, storedHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.store.UpsertUser(ctx, UserUpsert{OpenID: user.OpenID, LastSignedIn: &now}); err != nil {
		return nil, fmt.Errorf("update last signed in: %w", err)
	}

	token, err := s.signer.CreateSessionToken(user.OpenID, SessionOptions{Name: user.DisplayName()})
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		OpenID: user.OpenID,
		Name:   user.Name,
		Email:  user.Email,
		Token:  token,
	}, nil
}

// CompleteGoogleLogin records a Google-authenticated user and signs it in.
func (s *Service) CompleteGoogleLogin(ctx context.Context, profile GoogleProfile) (*AuthResult, error) {
	if profile.ID == "" {
		return nil, errors.New("google profile has no id")
	}
	if s.signer == nil {
		return nil, ErrSigningNotConfigured
	}

	identity := GoogleIdentity{ProviderID: profile.ID}
	now := s.now()
	upsert := UserUpsert{
		OpenID:       identity.OpenID(),
		Name:         optionalString(profile.Name),
		Email:        optionalString(profile.Email),
		LoginMethod:  stringPtr(identity.LoginMethod()),
		Role:         s.roleFor(identity.OpenID()),
		LastSignedIn: &now,
	}
	if err := s.store.UpsertUser(ctx, upsert); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	token, err := s.signer.CreateSessionToken(identity.OpenID(), SessionOptions{Name: profile.Name})
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		OpenID: identity.OpenID(),
		Name:   upsert.Name,
		Email:  upsert.Email,
		Token:  token,
	}, nil
}

// VerifySession resolves a raw token to its payload, or nil.
func (s *Service) VerifySession(token string) *SessionPayload {
	if s.signer == nil {
		return nil
	}
	return s.signer.VerifySession(token)
}

// AuthenticateRequest resolves the session cookie in a raw Cookie header to a
// user and refreshes its lastSignedIn. Invalid sessions and vanished users
// return an error matching ErrForbidden.
func (s *Service) AuthenticateRequest(ctx context.Context, cookieHeader string) (*User, error) {
	session := s.VerifySession(readCookie(cookieHeader, s.cookieName))
	if session == nil {
		return nil, fmt.Errorf("%w: invalid session cookie", ErrForbidden)
	}

	user, err := s.store.GetUserByOpenID(ctx, session.OpenID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user not found", ErrForbidden)
	}

	now := s.now()
	if err := s.store.UpsertUser(ctx, UserUpsert{OpenID: user.OpenID, LastSignedIn: &now}); err != nil {
		return nil, fmt.Errorf("update last signed in: %w", err)
	}
	user.LastSignedIn = now

	return user, nil
}

// CurrentUser is AuthenticateRequest for optional authentication: a missing or
// invalid session yields nil without an error.
func (s *Service) CurrentUser(ctx context.Context, cookieHeader string) (*User, error) {
	user, err := s.AuthenticateRequest(ctx, cookieHeader)
	if errors.Is(err, ErrForbidden) {
		return nil, nil
	}
	return user, err
}

func (s *Service) roleFor(openID string) *Role {
	if s.ownerOpenID != "" && openID == s.ownerOpenID {
		role := RoleAdmin
		return &role
	}
	return nil
}

// decoyRecord returns a password record for unknown-email logins, building it
// on first use. A failed build is retried on the next call, and the caller's
// cancellation does not abort it.
func (s *Service) decoyRecord(ctx context.Context) string {
	s.decoyMu.Lock()
	defer s.decoyMu.Unlock()

	if s.decoy == "" {
		record, err := s.hasher.Hash(context.WithoutCancel(ctx), "decoy-password")
		if err != nil {
			s.logger.Warn("could not build decoy password record", "error", err)
			return ""
		}
		s.decoy = record
	}
	return s.decoy
}

// readCookie extracts one cookie from a raw Cookie header.
func readCookie(header, name string) string {
	if header == "" {
		return ""
	}
	req := http.Request{Header: http.Header{"Cookie": {header}}}
	cookie, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
