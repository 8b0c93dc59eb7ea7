package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Address != ":3000" {
		t.Errorf("expected default address :3000, got %s", cfg.Server.Address)
	}
	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Errorf("unexpected write timeout: %s", cfg.Server.WriteTimeout)
	}
	if cfg.Tokens.Endpoint != "http://localhost:8000/token/" {
		t.Errorf("unexpected token endpoint: %s", cfg.Tokens.Endpoint)
	}
	if cfg.Tokens.Timeout != 10*time.Second {
		t.Errorf("unexpected token timeout: %s", cfg.Tokens.Timeout)
	}
	if cfg.Cookies.Secure || cfg.Cookies.HTTPOnly {
		t.Errorf("expected plain script-readable cookies by default, got %+v", cfg.Cookies)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("unexpected log level: %s", cfg.Logging.Level)
	}
	if cfg.Logging.Development() {
		t.Errorf("expected production logging by default")
	}
	if cfg.Telemetry.Endpoint != "" {
		t.Errorf("expected tracing disabled by default")
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"PORTAL_HTTP_ADDR":            "127.0.0.1:9000",
		"PORTAL_READ_TIMEOUT":         "3s",
		"PORTAL_TOKEN_ENDPOINT":       "https://auth.example.com/token/",
		"PORTAL_TOKEN_TIMEOUT":        "2s",
		"PORTAL_COOKIE_SECURE":        "true",
		"PORTAL_COOKIE_HTTP_ONLY":     "yes",
		"PORTAL_COOKIE_HASH_KEY":      "0123456789abcdef0123456789abcdef",
		"PORTAL_COOKIE_BLOCK_KEY":     "abcdef0123456789",
		"PORTAL_ENV":                  "development",
		"LOG_LEVEL":                   "debug",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "otel-collector:4317",
		"OTEL_EXPORTER_OTLP_INSECURE": "true",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Address != "127.0.0.1:9000" {
		t.Errorf("unexpected address: %s", cfg.Server.Address)
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Tokens.Endpoint != "https://auth.example.com/token/" || cfg.Tokens.Timeout != 2*time.Second {
		t.Errorf("unexpected token config: %+v", cfg.Tokens)
	}
	if !cfg.Cookies.Secure || !cfg.Cookies.HTTPOnly {
		t.Errorf("expected cookie flags to be enabled: %+v", cfg.Cookies)
	}
	if !cfg.Logging.Development() {
		t.Errorf("expected development logging")
	}
	if cfg.Telemetry.Endpoint != "otel-collector:4317" || !cfg.Telemetry.Insecure {
		t.Errorf("unexpected telemetry config: %+v", cfg.Telemetry)
	}
}

func TestLoadAcceptsStaticEndpoint(t *testing.T) {
	cfg, err := Load(context.Background(),
		WithEnvMap(map[string]string{"PORTAL_TOKEN_ENDPOINT": "static"}),
		WithoutSystemEnv(),
		WithEnvFile(""),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Tokens.Endpoint != StaticEndpoint {
		t.Errorf("expected static endpoint, got %s", cfg.Tokens.Endpoint)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	env := map[string]string{
		"PORTAL_TOKEN_ENDPOINT":   "localhost:8000/token/",
		"PORTAL_COOKIE_BLOCK_KEY": "short",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	fields := map[string]bool{}
	for _, f := range vErr.Fields() {
		fields[f] = true
	}
	for _, want := range []string{"Tokens.Endpoint", "Cookies.HashKey", "Cookies.BlockKey"} {
		if !fields[want] {
			t.Errorf("expected %s in validation fields, got %v", want, vErr.Fields())
		}
	}
}

func TestLoadRejectsUnparsableValues(t *testing.T) {
	env := map[string]string{
		"PORTAL_TOKEN_TIMEOUT":        "abc",
		"PORTAL_READ_TIMEOUT":         "10",
		"PORTAL_COOKIE_SECURE":        "sometimes",
		"OTEL_EXPORTER_OTLP_INSECURE": "maybe",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	got := vErr.Fields()
	want := []string{"Server.ReadTimeout", "Tokens.Timeout", "Cookies.Secure", "Telemetry.Insecure"}
	if len(got) != len(want) {
		t.Fatalf("expected fields %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected fields %v, got %v", want, got)
		}
	}
}

func TestLoadTrimsParsedValues(t *testing.T) {
	env := map[string]string{
		"PORTAL_WRITE_TIMEOUT":    " 45s ",
		"PORTAL_COOKIE_HTTP_ONLY": "YES",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.WriteTimeout != 45*time.Second {
		t.Errorf("expected write timeout 45s, got %s", cfg.Server.WriteTimeout)
	}
	if !cfg.Cookies.HTTPOnly {
		t.Errorf("expected HTTPOnly enabled")
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# local overrides\nPORTAL_HTTP_ADDR=:4000\nexport PORTAL_TOKEN_ENDPOINT=\"http://127.0.0.1:8001/token/\"\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(context.Background(),
		WithEnvFile(envPath),
		WithEnvMap(map[string]string{"PORTAL_HTTP_ADDR": ":5000"}),
		WithoutSystemEnv(),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Address != ":5000" {
		t.Errorf("explicit map should win over .env, got %s", cfg.Server.Address)
	}
	if cfg.Tokens.Endpoint != "http://127.0.0.1:8001/token/" {
		t.Errorf("expected endpoint from .env, got %s", cfg.Tokens.Endpoint)
	}
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load(context.Background(),
		WithEnvFile(filepath.Join(t.TempDir(), "missing.env")),
		WithoutSystemEnv(),
	)
	if err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}
}
