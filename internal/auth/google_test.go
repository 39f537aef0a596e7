package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestNewGoogleClientRequiresCredentials(t *testing.T) {
	if _, err := NewGoogleClient(context.Background(), GoogleConfig{ClientID: "id"}); !errors.Is(err, ErrGoogleNotConfigured) {
		t.Fatalf("expected ErrGoogleNotConfigured, got %v", err)
	}
}

func TestGoogleAuthURL(t *testing.T) {
	client, err := NewGoogleClient(context.Background(), GoogleConfig{ClientID: "client-id", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("NewGoogleClient returned error: %v", err)
	}

	raw := client.AuthURL("https://app.example.com/api/auth/google/callback", "c3RhdGU=")
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid auth URL %q: %v", raw, err)
	}
	if parsed.Host != "accounts.google.com" {
		t.Fatalf("expected Google host, got %q", parsed.Host)
	}

	q := parsed.Query()
	expected := map[string]string{
		"client_id":     "client-id",
		"redirect_uri":  "https://app.example.com/api/auth/google/callback",
		"state":         "c3RhdGU=",
		"response_type": "code",
		"access_type":   "offline",
		"prompt":        "consent",
	}
	for key, want := range expected {
		if got := q.Get(key); got != want {
			t.Errorf("expected %s=%q, got %q", key, want, got)
		}
	}
	for _, scope := range []string{"openid", "email", "profile"} {
		if !strings.Contains(q.Get("scope"), scope) {
			t.Errorf("expected scope %q in %q", scope, q.Get("scope"))
		}
	}
}

func newFakeGoogle(t *testing.T, userinfo map[string]string) (*httptest.Server, *GoogleClient) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		if r.Form.Get("redirect_uri") != "https://app.example.com/api/auth/google/callback" {
			http.Error(w, "redirect mismatch", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/userinfo") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer access-123" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userinfo)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewGoogleClient(context.Background(), GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "secret",
		HTTPClient:   server.Client(),
		Endpoint: &oauth2.Endpoint{
			AuthURL:   server.URL + "/auth",
			TokenURL:  server.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		APIEndpoint: server.URL + "/",
	})
	if err != nil {
		t.Fatalf("NewGoogleClient returned error: %v", err)
	}
	return server, client
}

func TestGoogleExchangeFetchesProfile(t *testing.T) {
	_, client := newFakeGoogle(t, map[string]string{
		"id":    "1234567890",
		"name":  "Ada Lovelace",
		"email": "ada@example.com",
	})

	profile, err := client.Exchange(context.Background(), "good-code", "https://app.example.com/api/auth/google/callback")
	if err != nil {
		t.Fatalf("Exchange returned error: %v", err)
	}
	if profile.ID != "1234567890" || profile.Name != "Ada Lovelace" || profile.Email != "ada@example.com" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestGoogleExchangeFailures(t *testing.T) {
	_, client := newFakeGoogle(t, map[string]string{"name": "No ID"})
	ctx := context.Background()
	redirect := "https://app.example.com/api/auth/google/callback"

	if _, err := client.Exchange(ctx, "", redirect); err == nil {
		t.Error("expected error for empty code")
	}
	if _, err := client.Exchange(ctx, "bad-code", redirect); err == nil {
		t.Error("expected error for rejected code")
	}
	if _, err := client.Exchange(ctx, "good-code", "https://evil.example.com/callback"); err == nil {
		t.Error("expected error for mismatched redirect URI")
	}
	if _, err := client.Exchange(ctx, "good-code", redirect); err == nil {
		t.Error("expected error for userinfo without id")
	}
}
