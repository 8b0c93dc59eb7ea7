package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	custommw "finitefield.org/auth-portal/internal/portal/httpserver/middleware"
	"finitefield.org/auth-portal/internal/portal/observability"
	"finitefield.org/auth-portal/internal/portal/templates/auth"
	"finitefield.org/auth-portal/internal/portal/tokens"
)

const (
	homePath   = "/"
	loginPath  = "/user/login"
	logoutPath = "/user/logout"

	// loginAction is where the form posts; the trailing slash is stripped by the router.
	loginAction = "/user/login/"
)

func errMissing(what string) error {
	return fmt.Errorf("httpserver: %s is required", what)
}

type authHandlers struct {
	issuer tokens.Issuer
}

func newAuthHandlers(issuer tokens.Issuer) *authHandlers {
	if issuer == nil {
		panic("auth: issuer is required")
	}
	return &authHandlers{issuer: issuer}
}

func (h *authHandlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderLoginPage(w, r, auth.LoginPageData{Action: loginAction}, http.StatusOK)
}

func (h *authHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		logger.Error("error in token fetch", zap.Error(fmt.Errorf("parse login form: %w", err)))
		h.renderLoginPage(w, r, auth.LoginPageData{Action: loginAction}, http.StatusBadRequest)
		return
	}

	creds := tokens.Credentials{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	data := auth.LoginPageData{
		Email:  strings.TrimSpace(creds.Email),
		Action: loginAction,
	}

	pair, err := h.issuer.Obtain(r.Context(), creds)
	if err != nil {
		status := loginFailureStatus(err)
		logger.Error("error in token fetch",
			zap.Error(err),
			zap.String("email", data.Email),
			zap.Int("status", status),
		)
		h.renderLoginPage(w, r, data, status)
		return
	}

	toks, ok := custommw.TokensFromContext(r.Context())
	if !ok {
		logger.Error("token store missing from request context")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	toks.Set(*pair)

	custommw.Redirect(w, r, homePath)
}

func (h *authHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if toks, ok := custommw.TokensFromContext(r.Context()); ok {
		toks.Clear()
	}
	custommw.Redirect(w, r, homePath)
}

func (h *authHandlers) renderLoginPage(w http.ResponseWriter, r *http.Request, data auth.LoginPageData, status int) {
	templ.Handler(auth.LoginPage(data), templ.WithStatus(status)).ServeHTTP(w, r)
}

func loginFailureStatus(err error) int {
	switch {
	case errors.Is(err, tokens.ErrMissingCredentials):
		return http.StatusBadRequest
	case errors.Is(err, tokens.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}
