package tokens

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
)

// StaticIssuer issues tokens without a backend, for local runs and tests.
// When Email/Password are empty any non-blank credentials are accepted.
type StaticIssuer struct {
	Email    string
	Password string
	Pair     *Pair
	Err      error

	mu    sync.Mutex
	calls []Credentials
}

// NewStaticIssuer constructs a StaticIssuer accepting any credentials.
func NewStaticIssuer() *StaticIssuer {
	return &StaticIssuer{}
}

// Obtain returns the configured pair, or a freshly generated one.
func (s *StaticIssuer) Obtain(_ context.Context, creds Credentials) (*Pair, error) {
	creds, err := creds.Normalize()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.calls = append(s.calls, creds)
	s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	if s.Email != "" && (creds.Email != s.Email || creds.Password != s.Password) {
		return nil, &ResponseError{StatusCode: http.StatusUnauthorized, Detail: "No active account found with the given credentials", Err: ErrInvalidCredentials}
	}
	if s.Pair != nil {
		copied := *s.Pair
		return &copied, nil
	}

	access, err := randomToken()
	if err != nil {
		return nil, err
	}
	refresh, err := randomToken()
	if err != nil {
		return nil, err
	}
	return &Pair{Access: access, Refresh: refresh}, nil
}

// Calls returns the credentials received so far.
func (s *StaticIssuer) Calls() []Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Credentials(nil), s.calls...)
}

func randomToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("tokens: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
