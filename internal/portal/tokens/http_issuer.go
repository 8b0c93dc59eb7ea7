package tokens

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HTTPClient matches the subset of http.Client used by HTTPIssuer.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPIssuer implements Issuer against a JSON token endpoint
// (`POST {email, password}` answering `{access, refresh}`).
type HTTPIssuer struct {
	endpoint *url.URL
	client   HTTPClient
}

// NewHTTPIssuer constructs an issuer posting to endpoint.
func NewHTTPIssuer(endpoint string, client HTTPClient) (*HTTPIssuer, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("tokens: endpoint is required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("tokens: parse endpoint: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("tokens: endpoint %q must be absolute", endpoint)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPIssuer{
		endpoint: parsed,
		client:   client,
	}, nil
}

// Endpoint returns the configured endpoint URL.
func (s *HTTPIssuer) Endpoint() string {
	return s.endpoint.String()
}

// Obtain posts the credentials and decodes the issued token pair.
func (s *HTTPIssuer) Obtain(ctx context.Context, creds Credentials) (*Pair, error) {
	creds, err := creds.Normalize()
	if err != nil {
		return nil, err
	}

	req, err := s.newJSONRequest(ctx, creds)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokens: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errorFromResponse(resp)
	}

	var pair Pair
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&pair); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(pair.Access) == "" {
		return nil, fmt.Errorf("%w: access token missing", ErrMalformedResponse)
	}
	return &pair, nil
}

func (s *HTTPIssuer) newJSONRequest(ctx context.Context, payload any) (*http.Request, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("tokens: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint.String(), &buf)
	if err != nil {
		return nil, fmt.Errorf("tokens: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	rerr := &ResponseError{StatusCode: resp.StatusCode}
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		rerr.Err = ErrInvalidCredentials
	}

	type errorPayload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	var payload errorPayload
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err == nil {
			rerr.Detail = firstNonEmpty(payload.Detail, payload.Message)
		}
		if rerr.Detail == "" {
			rerr.Detail = strings.TrimSpace(string(body))
		}
	}
	return rerr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
