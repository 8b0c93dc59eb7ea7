package session

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/securecookie"

	"finitefield.org/auth-portal/internal/portal/tokens"
)

const (
	defaultAccessCookieName  = "access_token"
	defaultRefreshCookieName = "refresh_token"
	defaultCookiePath        = "/"
)

// ErrInvalidConfig indicates the manager was initialised with missing or invalid options.
var ErrInvalidConfig = errors.New("session: invalid config")

// Config controls how the token cookies are named, scoped and encoded.
//
// Cookies carry no Expires/Max-Age and therefore live for the browser session.
// When HashKey is set the values are signed (and encrypted when BlockKey is set);
// otherwise the token strings are stored query-escaped so any byte survives.
type Config struct {
	AccessCookieName  string
	RefreshCookieName string
	CookiePath        string
	CookieDomain      string
	CookieSecure      bool
	CookieHTTPOnly    bool
	CookieSameSite    http.SameSite
	HashKey           []byte
	BlockKey          []byte
}

// Manager reads and writes the access/refresh token cookies.
type Manager struct {
	cfg   Config
	codec *securecookie.SecureCookie
}

// NewManager constructs a Manager using the provided configuration.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.BlockKey) > 0 && len(cfg.HashKey) == 0 {
		return nil, fmt.Errorf("%w: block key requires a hash key", ErrInvalidConfig)
	}
	if cfg.AccessCookieName == "" {
		cfg.AccessCookieName = defaultAccessCookieName
	}
	if cfg.RefreshCookieName == "" {
		cfg.RefreshCookieName = defaultRefreshCookieName
	}
	if cfg.AccessCookieName == cfg.RefreshCookieName {
		return nil, fmt.Errorf("%w: access and refresh cookie names must differ", ErrInvalidConfig)
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = defaultCookiePath
	}
	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	mgr := &Manager{cfg: cfg}
	if len(cfg.HashKey) > 0 {
		codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
		codec.SetSerializer(securecookie.JSONEncoder{})
		// Tokens are kept until logout, so the codec must not age values out.
		codec.MaxAge(0)
		mgr.codec = codec
	}
	return mgr, nil
}

// Signed reports whether cookie values are encoded with securecookie.
func (m *Manager) Signed() bool {
	return m.codec != nil
}

// Load reads the token cookies from the request. Missing or undecodable cookies
// count as absent.
func (m *Manager) Load(r *http.Request) *Tokens {
	return &Tokens{
		access:  m.read(r, m.cfg.AccessCookieName),
		refresh: m.read(r, m.cfg.RefreshCookieName),
	}
}

// Save writes the token cookies when they changed during the request. Cleared
// tokens expire both cookies.
func (m *Manager) Save(w http.ResponseWriter, t *Tokens) error {
	if t == nil {
		return errors.New("session: nil tokens")
	}
	if !t.dirty {
		return nil
	}
	if t.access == "" {
		m.Clear(w)
		return nil
	}

	access, err := m.encode(m.cfg.AccessCookieName, t.access)
	if err != nil {
		return err
	}
	http.SetCookie(w, m.cookie(m.cfg.AccessCookieName, access))

	if t.refresh == "" {
		http.SetCookie(w, m.expiredCookie(m.cfg.RefreshCookieName))
	} else {
		refresh, err := m.encode(m.cfg.RefreshCookieName, t.refresh)
		if err != nil {
			return err
		}
		http.SetCookie(w, m.cookie(m.cfg.RefreshCookieName, refresh))
	}
	t.dirty = false
	return nil
}

// Clear expires both token cookies immediately.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, m.expiredCookie(m.cfg.AccessCookieName))
	http.SetCookie(w, m.expiredCookie(m.cfg.RefreshCookieName))
}

func (m *Manager) read(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	if m.codec == nil {
		value, err := url.QueryUnescape(cookie.Value)
		if err != nil {
			// Written by something other than this manager; keep it verbatim.
			return cookie.Value
		}
		return value
	}
	var value string
	if err := m.codec.Decode(name, cookie.Value, &value); err != nil {
		return ""
	}
	return value
}

func (m *Manager) encode(name, value string) (string, error) {
	if m.codec == nil {
		return url.QueryEscape(value), nil
	}
	encoded, err := m.codec.Encode(name, value)
	if err != nil {
		return "", fmt.Errorf("encode %s cookie: %w", name, err)
	}
	return encoded, nil
}

func (m *Manager) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.cfg.CookiePath,
		Domain:   m.cfg.CookieDomain,
		Secure:   m.cfg.CookieSecure,
		HttpOnly: m.cfg.CookieHTTPOnly,
		SameSite: m.cfg.CookieSameSite,
	}
}

func (m *Manager) expiredCookie(name string) *http.Cookie {
	c := m.cookie(name, "")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

// Tokens holds the token pair for the current request lifecycle.
type Tokens struct {
	access  string
	refresh string
	dirty   bool
}

// Access returns the stored access token.
func (t *Tokens) Access() string {
	return t.access
}

// Refresh returns the stored refresh token.
func (t *Tokens) Refresh() string {
	return t.refresh
}

// Authenticated reports whether an access token is present. No validation happens.
func (t *Tokens) Authenticated() bool {
	return t != nil && t.access != ""
}

// Set replaces both tokens with the issued pair. Values are stored as issued.
func (t *Tokens) Set(pair tokens.Pair) {
	if pair.Access == t.access && pair.Refresh == t.refresh {
		return
	}
	t.access = pair.Access
	t.refresh = pair.Refresh
	t.dirty = true
}

// Clear drops both tokens; Save will expire the cookies.
func (t *Tokens) Clear() {
	t.access = ""
	t.refresh = ""
	t.dirty = true
}

// Dirty indicates whether the tokens changed during this request.
func (t *Tokens) Dirty() bool {
	return t.dirty
}
