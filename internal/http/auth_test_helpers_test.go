package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"revvel/internal/auth"
	"revvel/internal/config"
)

const testCookieName = "app_session_id"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSigner(t *testing.T) *auth.SessionSigner {
	t.Helper()
	signer, err := auth.NewSessionSigner("test_secret_32_bytes_long_xxxxxx", "revvel-test", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionSigner returned error: %v", err)
	}
	return signer
}

func newTestAuthService(t *testing.T, store auth.Store) *auth.Service {
	t.Helper()
	return auth.NewService(store, auth.NewHasher(2), newTestSigner(t),
		auth.WithCookieName(testCookieName),
		auth.WithLogger(discardLogger()),
	)
}

// signedToken mints a session that newTestAuthService accepts.
func signedToken(t *testing.T, openID string) string {
	t.Helper()
	token, err := newTestSigner(t).CreateSessionToken(openID, auth.SessionOptions{})
	if err != nil {
		t.Fatalf("CreateSessionToken returned error: %v", err)
	}
	return token
}

func testConfig() config.Config {
	return config.Config{
		Environment:    "development",
		AllowedOrigins: []string{"http://localhost:5173"},
	}
}

type fakeGoogleAuthenticator struct {
	profile         *auth.GoogleProfile
	exchangeErr     error
	lastCode        string
	lastRedirectURI string
	lastState       string
}

func (f *fakeGoogleAuthenticator) AuthURL(redirectURI, state string) string {
	f.lastRedirectURI = redirectURI
	f.lastState = state
	return "https://accounts.google.com/o/oauth2/v2/auth?state=" + state
}

func (f *fakeGoogleAuthenticator) Exchange(_ context.Context, code, redirectURI string) (*auth.GoogleProfile, error) {
	f.lastCode = code
	f.lastRedirectURI = redirectURI
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	if f.profile == nil {
		return nil, errors.New("no profile")
	}
	return f.profile, nil
}

// failingStore fails every call, standing in for a broken database.
type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) UpsertUser(context.Context, auth.UserUpsert) error { return errStoreDown }
func (failingStore) CreateUser(context.Context, auth.UserUpsert, string) error {
	return errStoreDown
}
func (failingStore) GetUserByOpenID(context.Context, string) (*auth.User, error) {
	return nil, errStoreDown
}
func (failingStore) GetUserByEmail(context.Context, string) (*auth.User, error) {
	return nil, errStoreDown
}
func (failingStore) SetPasswordHash(context.Context, string, string) error { return errStoreDown }
func (failingStore) GetPasswordHash(context.Context, string) (string, error) {
	return "", errStoreDown
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}
