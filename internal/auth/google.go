package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const (
	googleIssuer      = "https://accounts.google.com"
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	googleJWKSURL     = "https://www.googleapis.com/oauth2/v3/certs"

	defaultOAuthTimeout = 10 * time.Second
)

// GoogleConfig configures the Google OAuth client. Endpoint and APIEndpoint
// override Google's production URLs.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	HTTPClient   *http.Client

	Endpoint    *oauth2.Endpoint
	APIEndpoint string
}

// GoogleClient runs the authorization-code flow against Google.
type GoogleClient struct {
	config      *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	httpClient  *http.Client
	apiEndpoint string
	timeout     time.Duration
}

// NewGoogleClient creates a GoogleClient. Missing credentials yield ErrGoogleNotConfigured.
// The provider is configured statically, so no network call happens here.
func NewGoogleClient(ctx context.Context, cfg GoogleConfig) (*GoogleClient, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrGoogleNotConfigured
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultOAuthTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	providerConfig := &oidc.ProviderConfig{
		IssuerURL:   googleIssuer,
		AuthURL:     googleAuthURL,
		TokenURL:    googleTokenURL,
		UserInfoURL: googleUserInfoURL,
		JWKSURL:     googleJWKSURL,
		Algorithms:  []string{oidc.RS256},
	}
	provider := providerConfig.NewProvider(oidc.ClientContext(ctx, httpClient))

	endpoint := provider.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}

	return &GoogleClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier:    provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		httpClient:  httpClient,
		apiEndpoint: cfg.APIEndpoint,
		timeout:     timeout,
	}, nil
}

// AuthURL builds the consent URL for the given redirect URI and state.
func (g *GoogleClient) AuthURL(redirectURI, state string) string {
	return g.withRedirect(redirectURI).AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades the authorization code for an access token and fetches the
// user's basic profile with it. The whole exchange is bounded by the client timeout.
func (g *GoogleClient) Exchange(ctx context.Context, code, redirectURI string) (*GoogleProfile, error) {
	if code == "" {
		return nil, errors.New("authorization code is required")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)

	config := g.withRedirect(redirectURI)
	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	var subject string
	if rawIDToken, ok := token.Extra("id_token").(string); ok && rawIDToken != "" {
		idToken, err := g.verifier.Verify(oidc.ClientContext(ctx, g.httpClient), rawIDToken)
		if err != nil {
			return nil, fmt.Errorf("verify id_token: %w", err)
		}
		subject = idToken.Subject
	}

	opts := []option.ClientOption{option.WithHTTPClient(config.Client(ctx, token))}
	if g.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(g.apiEndpoint))
	}
	svc, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("userinfo client: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	if info.Id == "" {
		return nil, errors.New("userinfo response has no id")
	}
	if subject != "" && subject != info.Id {
		return nil, errors.New("id_token subject does not match userinfo id")
	}

	return &GoogleProfile{ID: info.Id, Name: info.Name, Email: info.Email}, nil
}

func (g *GoogleClient) withRedirect(redirectURI string) *oauth2.Config {
	config := *g.config
	config.RedirectURL = redirectURI
	return &config
}
