package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"revvel/internal/auth"
	"revvel/internal/metrics"
)

// SessionHandler serves email/password registration and login plus the
// session endpoints used by the SPA.
type SessionHandler struct {
	authService *auth.Service
	metrics     *metrics.Collector
	logger      *slog.Logger
}

// NewSessionHandler returns a handler wired to the auth service.
func NewSessionHandler(authService *auth.Service, collector *metrics.Collector, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{authService: authService, metrics: collector, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,max=1024"`
	Name     string `json:"name" validate:"max=200"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,max=320"`
	Password string `json:"password" validate:"required,max=1024"`
}

type authResponse struct {
	Success bool      `json:"success"`
	User    *userView `json:"user"`
}

// Register handles POST /api/auth/register.
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload registerRequest
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}
	payload.Email = strings.TrimSpace(payload.Email)
	if err := validate.Struct(payload); err != nil {
		h.metrics.RecordAuth(metrics.MethodEmailRegister, metrics.ResultInvalid)
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := h.authService.Register(r.Context(), auth.RegisterInput{
		Email:    payload.Email,
		Password: payload.Password,
		Name:     payload.Name,
	})
	if err != nil {
		h.writeAuthError(w, metrics.MethodEmailRegister, "Registration failed", err)
		return
	}

	setSessionCookie(w, r, h.authService.CookieName(), result.Token, h.authService.SessionTTL())
	h.metrics.RecordAuth(metrics.MethodEmailRegister, metrics.ResultSuccess)
	h.logger.Info("user registered", "open_id", result.OpenID)
	writeJSON(w, http.StatusOK, authResponse{Success: true, User: resultView(result)})
}

// Login handles POST /api/auth/login.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}
	payload.Email = strings.TrimSpace(payload.Email)
	if err := validate.Struct(payload); err != nil {
		h.metrics.RecordAuth(metrics.MethodEmailLogin, metrics.ResultInvalid)
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := h.authService.Login(r.Context(), auth.LoginInput{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		h.writeAuthError(w, metrics.MethodEmailLogin, "Login failed", err)
		return
	}

	setSessionCookie(w, r, h.authService.CookieName(), result.Token, h.authService.SessionTTL())
	h.metrics.RecordAuth(metrics.MethodEmailLogin, metrics.ResultSuccess)
	writeJSON(w, http.StatusOK, authResponse{Success: true, User: resultView(result)})
}

// Logout handles POST /api/auth/logout. Sessions are stateless, so this only
// clears the cookie; the token itself stays valid until it expires.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, r, h.authService.CookieName())
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me handles GET /api/auth/me and reports the signed-in user, or null.
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.CurrentUser(r.Context(), cookieHeader(r))
	if err != nil {
		h.logger.Error("resolve current user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]*userView{"user": newUserView(user)})
}

// Account handles GET /api/account behind the auth middleware.
func (h *SessionHandler) Account(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]*userView{"user": newUserView(UserFromContext(r.Context()))})
}

// writeAuthError maps service errors to status codes. Credential failures stay
// low-information for the client; the cause is only logged.
func (h *SessionHandler) writeAuthError(w http.ResponseWriter, method, fallback string, err error) {
	switch {
	case errors.Is(err, auth.ErrValidation):
		h.metrics.RecordAuth(method, metrics.ResultInvalid)
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		h.metrics.RecordAuth(method, metrics.ResultConflict)
		writeError(w, http.StatusConflict, "An account with this email already exists. Try logging in instead.")
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.metrics.RecordAuth(method, metrics.ResultInvalid)
		h.logger.Warn("authentication rejected", "method", method, "error", err)
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, auth.ErrUseGoogleLogin):
		h.metrics.RecordAuth(method, metrics.ResultWrongMethod)
		h.logger.Warn("authentication rejected", "method", method, "error", err)
		writeError(w, http.StatusUnauthorized, "This account uses Google login. Please sign in with Google.")
	case errors.Is(err, auth.ErrSigningNotConfigured):
		h.metrics.RecordAuth(method, metrics.ResultNotConfigured)
		h.logger.Error("session signing is not configured", "method", method)
		writeError(w, http.StatusServiceUnavailable, "Authentication is not configured")
	default:
		h.metrics.RecordAuth(method, metrics.ResultError)
		h.logger.Error("authentication failed", "method", method, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// cookieHeader joins every Cookie header; HTTP/2 clients may split them.
func cookieHeader(r *http.Request) string {
	return strings.Join(r.Header.Values("Cookie"), "; ")
}
