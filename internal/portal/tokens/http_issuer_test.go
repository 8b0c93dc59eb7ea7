package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPIssuerObtainSuccess(t *testing.T) {
	t.Parallel()

	var received Credentials
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/token/", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access":"access-123","refresh":"refresh-456"}`))
	}))
	t.Cleanup(srv.Close)

	issuer, err := NewHTTPIssuer(srv.URL+"/token/", srv.Client())
	require.NoError(t, err)

	pair, err := issuer.Obtain(context.Background(), Credentials{Email: "  user@example.com ", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, &Pair{Access: "access-123", Refresh: "refresh-456"}, pair)
	require.Equal(t, Credentials{Email: "user@example.com", Password: "secret"}, received, "email is trimmed before sending")
}

func TestHTTPIssuerRejectedCredentials(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantDetail  string
	}{
		{
			name:        "bad request",
			status:      http.StatusBadRequest,
			contentType: "application/json",
			body:        `{"email":["This field is required."]}`,
			wantDetail:  `{"email":["This field is required."]}`,
		},
		{
			name:        "unauthorized",
			status:      http.StatusUnauthorized,
			contentType: "application/json",
			body:        `{"detail":"No active account found with the given credentials"}`,
			wantDetail:  "No active account found with the given credentials",
		},
		{
			name:        "forbidden",
			status:      http.StatusForbidden,
			contentType: "application/json",
			body:        `{"message":"account disabled"}`,
			wantDetail:  "account disabled",
		},
		{
			name:        "plain text body",
			status:      http.StatusUnauthorized,
			contentType: "text/plain; charset=utf-8",
			body:        "  bad credentials\n",
			wantDetail:  "bad credentials",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.contentType)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(srv.Close)

			issuer, err := NewHTTPIssuer(srv.URL+"/token/", srv.Client())
			require.NoError(t, err)

			_, err = issuer.Obtain(context.Background(), Credentials{Email: "user@example.com", Password: "wrong"})
			require.Error(t, err)
			require.ErrorIs(t, err, ErrInvalidCredentials)

			var rerr *ResponseError
			require.ErrorAs(t, err, &rerr)
			require.Equal(t, tc.status, rerr.StatusCode)
			require.Equal(t, tc.wantDetail, rerr.Detail)
		})
	}
}

func TestHTTPIssuerServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	issuer, err := NewHTTPIssuer(srv.URL+"/token/", srv.Client())
	require.NoError(t, err)

	_, err = issuer.Obtain(context.Background(), Credentials{Email: "user@example.com", Password: "secret"})
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrInvalidCredentials))

	var rerr *ResponseError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, http.StatusInternalServerError, rerr.StatusCode)
	require.Equal(t, "upstream exploded", rerr.Detail)
}

func TestHTTPIssuerMalformedResponse(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":       `<html>oops</html>`,
		"missing access": `{"refresh":"only-refresh"}`,
	}
	for name, body := range cases {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			t.Cleanup(srv.Close)

			issuer, err := NewHTTPIssuer(srv.URL, srv.Client())
			require.NoError(t, err)

			_, err = issuer.Obtain(context.Background(), Credentials{Email: "user@example.com", Password: "secret"})
			require.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestHTTPIssuerTransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/token/"
	srv.Close()

	issuer, err := NewHTTPIssuer(endpoint, nil)
	require.NoError(t, err)

	_, err = issuer.Obtain(context.Background(), Credentials{Email: "user@example.com", Password: "secret"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "tokens: request failed")

	var rerr *ResponseError
	require.False(t, errors.As(err, &rerr), "transport failures carry no status")
}

func TestHTTPIssuerMissingCredentialsSkipsCall(t *testing.T) {
	t.Parallel()

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	t.Cleanup(srv.Close)

	issuer, err := NewHTTPIssuer(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = issuer.Obtain(context.Background(), Credentials{Email: "   ", Password: "secret"})
	require.ErrorIs(t, err, ErrMissingCredentials)
	require.False(t, called, "no request should be sent without credentials")
}

func TestNewHTTPIssuerValidatesEndpoint(t *testing.T) {
	t.Parallel()

	_, err := NewHTTPIssuer("", nil)
	require.Error(t, err)

	_, err = NewHTTPIssuer("/token/", nil)
	require.Error(t, err)

	issuer, err := NewHTTPIssuer("http://localhost:8000/token/", nil)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000/token/", issuer.Endpoint())
}

func TestStaticIssuer(t *testing.T) {
	t.Parallel()

	issuer := &StaticIssuer{
		Email:    "user@example.com",
		Password: "secret",
		Pair:     &Pair{Access: "a", Refresh: "r"},
	}

	pair, err := issuer.Obtain(context.Background(), Credentials{Email: "user@example.com", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, "a", pair.Access)

	_, err = issuer.Obtain(context.Background(), Credentials{Email: "user@example.com", Password: "nope"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.Len(t, issuer.Calls(), 2)

	open := NewStaticIssuer()
	generated, err := open.Obtain(context.Background(), Credentials{Email: "anyone@example.com", Password: "x"})
	require.NoError(t, err)
	require.NotEmpty(t, generated.Access)
	require.NotEmpty(t, generated.Refresh)
	require.NotEqual(t, generated.Access, generated.Refresh)
}
