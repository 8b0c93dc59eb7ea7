package middleware

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"finitefield.org/auth-portal/internal/portal/observability"
	appsession "finitefield.org/auth-portal/internal/portal/session"
)

type sessionContextKey string

const requestTokensKey sessionContextKey = "portal.tokens"

// TokenStore abstracts the cookie manager for middleware integration.
type TokenStore interface {
	Load(*http.Request) *appsession.Tokens
	Save(http.ResponseWriter, *appsession.Tokens) error
}

// Session attaches the token cookies to the request context and writes changed
// tokens back as Set-Cookie headers right before the response header is sent.
func Session(store TokenStore) func(http.Handler) http.Handler {
	if store == nil {
		panic("token store is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			toks := store.Load(r)
			ctx := context.WithValue(r.Context(), requestTokensKey, toks)
			r = r.WithContext(ctx)

			cw := &committingWriter{ResponseWriter: w}
			cw.commit = func() {
				if err := store.Save(w, toks); err != nil {
					observability.FromContext(r.Context()).Error("token cookie save failed", zap.Error(err))
				}
			}

			next.ServeHTTP(cw, r)
			cw.once.Do(cw.commit)
		})
	}
}

// TokensFromContext retrieves the tokens attached to this request.
func TokensFromContext(ctx context.Context) (*appsession.Tokens, bool) {
	if ctx == nil {
		return nil, false
	}
	toks, ok := ctx.Value(requestTokensKey).(*appsession.Tokens)
	return toks, ok && toks != nil
}

// Authenticated reports whether the current request carries an access token.
func Authenticated(ctx context.Context) bool {
	toks, ok := TokensFromContext(ctx)
	return ok && toks.Authenticated()
}

type committingWriter struct {
	http.ResponseWriter
	once   sync.Once
	commit func()
}

func (w *committingWriter) WriteHeader(status int) {
	w.once.Do(w.commit)
	w.ResponseWriter.WriteHeader(status)
}

func (w *committingWriter) Write(b []byte) (int, error) {
	w.once.Do(w.commit)
	return w.ResponseWriter.Write(b)
}

func (w *committingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
