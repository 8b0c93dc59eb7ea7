package helpers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"

	"finitefield.org/auth-portal/internal/portal/httpserver/middleware"
)

func contextForPath(t *testing.T, path string) context.Context {
	t.Helper()

	var ctx context.Context
	handler := middleware.RequestInfoMiddleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	require.NotNil(t, ctx)
	return ctx
}

func TestNavActiveIgnoresTrailingSlash(t *testing.T) {
	t.Parallel()

	ctx := contextForPath(t, "/user/login/")
	require.True(t, NavActive(ctx, "/user/login"))
	require.False(t, NavActive(ctx, "/user/logout"))
	require.False(t, NavActive(ctx, "/"))
	require.Equal(t, templ.KV("page", true), AriaCurrent(ctx, "/user/login")["aria-current"])
	require.Equal(t, templ.KV("page", false), AriaCurrent(ctx, "/")["aria-current"])
}

func TestNavActiveRoot(t *testing.T) {
	t.Parallel()

	ctx := contextForPath(t, "/")
	require.True(t, NavActive(ctx, "/"))
	require.Equal(t, "/", RequestPath(ctx))
}

func TestNormalizeRoute(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":               "/",
		"user/login":     "/user/login",
		"//user//login/": "/user/login",
		"/":              "/",
	}
	for in, want := range cases {
		require.Equal(t, want, normalizeRoute(in), "input %q", in)
	}
}
