package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	custommw "finitefield.org/auth-portal/internal/portal/httpserver/middleware"
	"finitefield.org/auth-portal/internal/portal/httpserver/ui"
	"finitefield.org/auth-portal/internal/portal/observability"
	"finitefield.org/auth-portal/internal/portal/tokens"
	"finitefield.org/auth-portal/public"
)

const (
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	defaultIdleTimeout    = 60 * time.Second
	defaultHandlerTimeout = 60 * time.Second
)

// Config holds runtime options for the portal HTTP server.
type Config struct {
	Address      string
	Issuer       tokens.Issuer
	TokenStore   custommw.TokenStore
	Logger       *zap.Logger
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) (*http.Server, error) {
	if cfg.Issuer == nil {
		return nil, errMissing("token issuer")
	}
	if cfg.TokenStore == nil {
		return nil, errMissing("token store")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	staticContent, err := public.StaticFS()
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLoggerMiddleware(logger))
	router.Use(observability.RequestLoggerMiddleware())
	router.Use(observability.RecoveryMiddleware(logger))
	router.Use(chimw.StripSlashes)
	router.Use(chimw.Timeout(defaultHandlerTimeout))

	router.Handle("/public/static/*", http.StripPrefix("/public/static/", http.FileServer(http.FS(staticContent))))
	router.Get("/healthz", healthz)

	mountPortalRoutes(router, cfg)

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      observability.TraceHandler(router),
		ReadTimeout:  durationOr(cfg.ReadTimeout, defaultReadTimeout),
		WriteTimeout: durationOr(cfg.WriteTimeout, defaultWriteTimeout),
		IdleTimeout:  durationOr(cfg.IdleTimeout, defaultIdleTimeout),
		ErrorLog:     zap.NewStdLog(logger),
	}, nil
}

func mountPortalRoutes(router chi.Router, cfg Config) {
	authHandlers := newAuthHandlers(cfg.Issuer)
	uiHandlers := ui.NewHandlers()

	router.Group(func(r chi.Router) {
		r.Use(custommw.HTMX())
		r.Use(custommw.NoStore())
		r.Use(custommw.RequestInfoMiddleware())
		r.Use(custommw.Session(cfg.TokenStore))

		r.Get("/", uiHandlers.Home)
		r.Get(loginPath, authHandlers.LoginForm)
		r.Post(loginPath, authHandlers.LoginSubmit)
		r.Get(logoutPath, authHandlers.Logout)
	})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}
