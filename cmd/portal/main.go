package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"finitefield.org/auth-portal/internal/portal/config"
	"finitefield.org/auth-portal/internal/portal/httpserver"
	"finitefield.org/auth-portal/internal/portal/observability"
	appsession "finitefield.org/auth-portal/internal/portal/session"
	"finitefield.org/auth-portal/internal/portal/tokens"
)

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Development())
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("portal exited", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.SetupTracing(ctx, observability.TracingConfig{
		Endpoint: cfg.Telemetry.Endpoint,
		Insecure: cfg.Telemetry.Insecure,
	}, logger)

	issuer, err := buildIssuer(cfg.Tokens, logger)
	if err != nil {
		return err
	}

	store, err := appsession.NewManager(appsession.Config{
		CookieDomain:   cfg.Cookies.Domain,
		CookieSecure:   cfg.Cookies.Secure,
		CookieHTTPOnly: cfg.Cookies.HTTPOnly,
		HashKey:        []byte(cfg.Cookies.HashKey),
		BlockKey:       []byte(cfg.Cookies.BlockKey),
	})
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}

	srv, err := httpserver.New(httpserver.Config{
		Address:      cfg.Server.Address,
		Issuer:       issuer,
		TokenStore:   store,
		Logger:       logger,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	})
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	logger.Info("portal listening",
		zap.String("addr", cfg.Server.Address),
		zap.Bool("signed_cookies", store.Signed()),
	)

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown failed", zap.Error(err))
	}
	logger.Info("portal stopped")
	return nil
}

func buildIssuer(cfg config.TokenConfig, logger *zap.Logger) (tokens.Issuer, error) {
	if cfg.Endpoint == config.StaticEndpoint {
		logger.Warn("token endpoint set to static; any credentials are accepted")
		return tokens.NewStaticIssuer(), nil
	}

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: observability.TraceTransport(nil),
	}
	issuer, err := tokens.NewHTTPIssuer(cfg.Endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}
	logger.Info("token endpoint configured", zap.String("endpoint", issuer.Endpoint()))
	return issuer, nil
}
