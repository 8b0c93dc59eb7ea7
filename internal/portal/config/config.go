package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile         = ".env"
	defaultAddress         = ":3000"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultTokenEndpoint   = "http://localhost:8000/token/"
	defaultTokenTimeout    = 10 * time.Second
	defaultEnvironment     = "production"
	defaultLogLevel        = "info"

	// StaticEndpoint selects the in-process token issuer instead of a remote endpoint.
	StaticEndpoint = "static"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Tokens    TokenConfig
	Cookies   CookieConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// TokenConfig points at the endpoint exchanging credentials for a token pair.
type TokenConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// CookieConfig controls how the token cookies are written.
type CookieConfig struct {
	Domain   string
	Secure   bool
	HTTPOnly bool
	HashKey  string
	BlockKey string
}

// LoggingConfig selects log level and encoding.
type LoggingConfig struct {
	Level       string
	Environment string
}

// TelemetryConfig configures the OTLP trace exporter.
type TelemetryConfig struct {
	Endpoint string
	Insecure bool
}

// Development reports whether the process runs with developer-friendly defaults.
func (c LoggingConfig) Development() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.LookupEnv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration by combining defaults, .env overrides and
// environment variables.
func Load(_ context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if value, ok := dotEnvValues[key]; ok {
			return value, true
		}
		return "", false
	}

	env := &envReader{lookup: lookup}
	cfg := Config{
		Server: ServerConfig{
			Address:         env.string("PORTAL_HTTP_ADDR", defaultAddress),
			ReadTimeout:     env.duration("PORTAL_READ_TIMEOUT", "Server.ReadTimeout", defaultReadTimeout),
			WriteTimeout:    env.duration("PORTAL_WRITE_TIMEOUT", "Server.WriteTimeout", defaultWriteTimeout),
			IdleTimeout:     env.duration("PORTAL_IDLE_TIMEOUT", "Server.IdleTimeout", defaultIdleTimeout),
			ShutdownTimeout: env.duration("PORTAL_SHUTDOWN_TIMEOUT", "Server.ShutdownTimeout", defaultShutdownTimeout),
		},
		Tokens: TokenConfig{
			Endpoint: strings.TrimSpace(env.string("PORTAL_TOKEN_ENDPOINT", defaultTokenEndpoint)),
			Timeout:  env.duration("PORTAL_TOKEN_TIMEOUT", "Tokens.Timeout", defaultTokenTimeout),
		},
		Cookies: CookieConfig{
			Domain:   env.string("PORTAL_COOKIE_DOMAIN", ""),
			Secure:   env.bool("PORTAL_COOKIE_SECURE", "Cookies.Secure", false),
			HTTPOnly: env.bool("PORTAL_COOKIE_HTTP_ONLY", "Cookies.HTTPOnly", false),
			HashKey:  env.string("PORTAL_COOKIE_HASH_KEY", ""),
			BlockKey: env.string("PORTAL_COOKIE_BLOCK_KEY", ""),
		},
		Logging: LoggingConfig{
			Level:       env.string("LOG_LEVEL", defaultLogLevel),
			Environment: env.string("PORTAL_ENV", defaultEnvironment),
		},
		Telemetry: TelemetryConfig{
			Endpoint: env.string("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure: env.bool("OTEL_EXPORTER_OTLP_INSECURE", "Telemetry.Insecure", false),
		},
	}

	if err := validateConfig(cfg, env.invalid); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config, unparsable []string) error {
	missing := append([]string(nil), unparsable...)

	if strings.TrimSpace(cfg.Server.Address) == "" {
		missing = append(missing, "Server.Address")
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		missing = append(missing, "Server.ShutdownTimeout")
	}
	if !validEndpoint(cfg.Tokens.Endpoint) {
		missing = append(missing, "Tokens.Endpoint")
	}
	if cfg.Tokens.Timeout <= 0 {
		missing = append(missing, "Tokens.Timeout")
	}
	if cfg.Cookies.BlockKey != "" && cfg.Cookies.HashKey == "" {
		missing = append(missing, "Cookies.HashKey")
	}
	if n := len(cfg.Cookies.HashKey); n > 0 && n < 32 {
		missing = append(missing, "Cookies.HashKey")
	}
	switch len(cfg.Cookies.BlockKey) {
	case 0, 16, 24, 32:
	default:
		missing = append(missing, "Cookies.BlockKey")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func validEndpoint(raw string) bool {
	if raw == StaticEndpoint {
		return true
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	if _, err := os.Stat(absPath); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	values, err := godotenv.Read(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	return values, nil
}

// envReader resolves keys through lookup and records fields whose values do not parse.
type envReader struct {
	lookup  func(string) (string, bool)
	invalid []string
}

func (e *envReader) string(key, fallback string) string {
	if value, ok := e.lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func (e *envReader) duration(key, field string, fallback time.Duration) time.Duration {
	value, ok := e.lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		e.invalid = append(e.invalid, field)
		return fallback
	}
	return d
}

func (e *envReader) bool(key, field string, fallback bool) bool {
	value, ok := e.lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		e.invalid = append(e.invalid, field)
		return fallback
	}
}
