package http

import (
	"net/http"
	"strings"
	"time"
)

// isSecureRequest reports whether the client reached us over HTTPS, directly or
// through a TLS-terminating proxy.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	proto, _, _ := strings.Cut(r.Header.Get("X-Forwarded-Proto"), ",")
	return strings.EqualFold(strings.TrimSpace(proto), "https")
}

// sessionCookie builds the session cookie for r. Cross-site SameSite=None is
// only allowed on secure cookies, so plain HTTP falls back to Lax. Lifetime is
// carried by Max-Age alone so it never disagrees with the token's own expiry.
func sessionCookie(r *http.Request, name, value string, ttl time.Duration) *http.Cookie {
	secure := isSecureRequest(r)
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   int(ttl.Seconds()),
	}
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, name, token string, ttl time.Duration) {
	http.SetCookie(w, sessionCookie(r, name, token, ttl))
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request, name string) {
	cookie := sessionCookie(r, name, "", 0)
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)
}
