package http

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"revvel/internal/auth"
	"revvel/internal/metrics"
)

const googleCallbackPath = "/api/auth/google/callback"

// GoogleAuthenticator runs the Google authorization-code flow.
type GoogleAuthenticator interface {
	AuthURL(redirectURI, state string) string
	Exchange(ctx context.Context, code, redirectURI string) (*auth.GoogleProfile, error)
}

// OAuthHandler handles OAuth authentication endpoints.
type OAuthHandler struct {
	google      GoogleAuthenticator
	authService *auth.Service
	metrics     *metrics.Collector
	logger      *slog.Logger
}

// NewOAuthHandler creates a new OAuthHandler. A nil google disables Google sign-in.
func NewOAuthHandler(google GoogleAuthenticator, authService *auth.Service, collector *metrics.Collector, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		google:      google,
		authService: authService,
		metrics:     collector,
		logger:      logger,
	}
}

// InitiateGoogle handles GET /api/auth/google
// Redirects the user to Google's OAuth consent screen. The state carries the
// redirect URI so the callback can repeat it without server-side storage.
func (h *OAuthHandler) InitiateGoogle(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		h.metrics.RecordAuth(metrics.MethodGoogle, metrics.ResultNotConfigured)
		redirectToLogin(w, r, "google_not_configured")
		return
	}

	redirectURI := callbackURL(r)
	state := base64.StdEncoding.EncodeToString([]byte(redirectURI))
	http.Redirect(w, r, h.google.AuthURL(redirectURI, state), http.StatusFound)
}

// CallbackGoogle handles GET /api/auth/google/callback
// Exchanges the authorization code, records the user and issues a session.
// Every failure ends on the login page with google_auth_failed.
func (h *OAuthHandler) CallbackGoogle(w http.ResponseWriter, r *http.Request) {
	result, err := h.completeGoogle(r)
	if err != nil {
		h.logger.Error("google oauth callback failed", "error", err)
		h.metrics.RecordAuth(metrics.MethodGoogle, metrics.ResultError)
		redirectToLogin(w, r, "google_auth_failed")
		return
	}

	setSessionCookie(w, r, h.authService.CookieName(), result.Token, h.authService.SessionTTL())
	h.metrics.RecordAuth(metrics.MethodGoogle, metrics.ResultSuccess)
	h.logger.Info("google login successful", "open_id", result.OpenID)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *OAuthHandler) completeGoogle(r *http.Request) (*auth.AuthResult, error) {
	if h.google == nil {
		return nil, auth.ErrGoogleNotConfigured
	}

	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		return nil, fmt.Errorf("provider returned error %q", providerErr)
	}
	code := query.Get("code")
	if code == "" {
		return nil, errors.New("missing authorization code")
	}

	redirectURI, err := redirectURIFromState(r, query.Get("state"))
	if err != nil {
		return nil, err
	}

	profile, err := h.google.Exchange(r.Context(), code, redirectURI)
	if err != nil {
		return nil, err
	}

	return h.authService.CompleteGoogleLogin(r.Context(), *profile)
}

// LegacyCallback handles GET /api/oauth/callback, the retired hosted OAuth flow.
func (h *OAuthHandler) LegacyCallback(w http.ResponseWriter, r *http.Request) {
	redirectToLogin(w, r, "manus_oauth_deprecated")
}

// callbackURL computes the Google redirect URI from the request's own host.
func callbackURL(r *http.Request) string {
	scheme := "http"
	if isSecureRequest(r) {
		scheme = "https"
	}
	return scheme + "://" + r.Host + googleCallbackPath
}

// redirectURIFromState decodes the base64 redirect URI carried in state. An
// empty state falls back to the URI computed from the request. A decoded URI
// must point back at this host's callback, so state cannot steer the code elsewhere.
func redirectURIFromState(r *http.Request, state string) (string, error) {
	if state == "" {
		return callbackURL(r), nil
	}

	decoded, err := base64.StdEncoding.DecodeString(state)
	if err != nil {
		return "", fmt.Errorf("decode state: %w", err)
	}

	target, err := url.Parse(string(decoded))
	if err != nil {
		return "", fmt.Errorf("parse redirect uri: %w", err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return "", fmt.Errorf("redirect uri has unsupported scheme %q", target.Scheme)
	}
	if target.User != nil || !strings.EqualFold(target.Host, r.Host) {
		return "", fmt.Errorf("redirect uri host %q does not match request host %q", target.Host, r.Host)
	}
	if target.Path != googleCallbackPath || target.RawQuery != "" || target.Fragment != "" {
		return "", fmt.Errorf("redirect uri %q is not the google callback", target.Redacted())
	}
	return string(decoded), nil
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/login?error="+url.QueryEscape(code), http.StatusFound)
}
