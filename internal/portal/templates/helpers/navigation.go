package helpers

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"finitefield.org/auth-portal/internal/portal/httpserver/middleware"
)

// RequestPath returns the current request URL path for template helpers.
func RequestPath(ctx context.Context) string {
	return normalizeRoute(middleware.RequestPathFromContext(ctx))
}

// NavActive reports whether the current request should highlight the menu item.
func NavActive(ctx context.Context, pattern string) bool {
	target := normalizeRoute(pattern)
	if target == "" {
		return false
	}
	return RequestPath(ctx) == target
}

// AriaCurrent marks the link for the current route with aria-current="page".
func AriaCurrent(ctx context.Context, pattern string) templ.Attributes {
	return templ.Attributes{"aria-current": templ.KV("page", NavActive(ctx, pattern))}
}

// IsAuthenticated exposes the token-presence flag to templates.
func IsAuthenticated(ctx context.Context) bool {
	return middleware.Authenticated(ctx)
}

func normalizeRoute(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}
