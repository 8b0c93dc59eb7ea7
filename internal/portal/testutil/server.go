package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"finitefield.org/auth-portal/internal/portal/httpserver"
	"finitefield.org/auth-portal/internal/portal/httpserver/middleware"
	appsession "finitefield.org/auth-portal/internal/portal/session"
	"finitefield.org/auth-portal/internal/portal/tokens"
)

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithIssuer overrides the token issuer used by the login handler.
func WithIssuer(issuer tokens.Issuer) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Issuer = issuer
	}
}

// WithTokenStore overrides the cookie store.
func WithTokenStore(store middleware.TokenStore) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.TokenStore = store
	}
}

// WithLogger routes server logs to logger.
func WithLogger(logger *zap.Logger) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Logger = logger
	}
}

// NewServer constructs an httptest server running the portal HTTP stack with sensible defaults.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	store, err := appsession.NewManager(appsession.Config{})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	cfg := httpserver.Config{
		Address:    ":0",
		Issuer:     tokens.NewStaticIssuer(),
		TokenStore: store,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	srv, err := httpserver.New(cfg)
	if err != nil {
		t.Fatalf("httpserver.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

// NoRedirectClient returns a client that surfaces redirects instead of following them.
func NoRedirectClient(ts *httptest.Server) *http.Client {
	client := ts.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return client
}
