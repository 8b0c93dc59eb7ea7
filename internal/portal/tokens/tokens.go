package tokens

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrMissingCredentials is returned before any network call when email or password is blank.
	ErrMissingCredentials = errors.New("tokens: email and password are required")
	// ErrInvalidCredentials indicates the endpoint rejected the credentials.
	ErrInvalidCredentials = errors.New("tokens: invalid credentials")
	// ErrMalformedResponse indicates a successful status without a usable token pair.
	ErrMalformedResponse = errors.New("tokens: malformed token response")
)

// Credentials is the login form payload forwarded to the token endpoint.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize trims the email and reports whether both fields are present.
func (c Credentials) Normalize() (Credentials, error) {
	c.Email = strings.TrimSpace(c.Email)
	if c.Email == "" || c.Password == "" {
		return c, ErrMissingCredentials
	}
	return c, nil
}

// Pair is the access/refresh token pair issued by the endpoint. Both values are opaque.
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Issuer exchanges credentials for a token pair.
type Issuer interface {
	Obtain(ctx context.Context, creds Credentials) (*Pair, error)
}

// ResponseError describes a non-2xx answer from the token endpoint.
type ResponseError struct {
	StatusCode int
	Detail     string
	Err        error
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	detail := strings.TrimSpace(e.Detail)
	if detail == "" {
		detail = http.StatusText(e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%v (%d): %s", e.Err, e.StatusCode, detail)
	}
	return fmt.Sprintf("tokens: endpoint error (%d): %s", e.StatusCode, detail)
}

// Unwrap returns the classified cause, if any.
func (e *ResponseError) Unwrap() error {
	return e.Err
}
