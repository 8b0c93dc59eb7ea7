package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/auth-portal/internal/portal/tokens"
)

func TestLoginFailureStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		err  error
		want int
	}{
		"missing":   {err: tokens.ErrMissingCredentials, want: http.StatusBadRequest},
		"rejected":  {err: &tokens.ResponseError{StatusCode: http.StatusUnauthorized, Err: tokens.ErrInvalidCredentials}, want: http.StatusUnauthorized},
		"malformed": {err: fmt.Errorf("%w: eof", tokens.ErrMalformedResponse), want: http.StatusBadGateway},
		"upstream":  {err: &tokens.ResponseError{StatusCode: http.StatusInternalServerError}, want: http.StatusBadGateway},
		"transport": {err: errors.New("tokens: request failed: dial tcp"), want: http.StatusBadGateway},
	}
	for name, tc := range cases {
		require.Equal(t, tc.want, loginFailureStatus(tc.err), name)
	}
}

func TestNewRequiresIssuerAndStore(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{Issuer: tokens.NewStaticIssuer()})
	require.Error(t, err)
}
