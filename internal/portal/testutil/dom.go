package testutil

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

// ParseHTML parses an HTML payload for goquery assertions.
func ParseHTML(t testing.TB, body []byte) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	require.NoError(t, err, "parse html")
	return doc
}

// ParseResponse checks the status code, drains and closes the body, and parses it as HTML.
func ParseResponse(t testing.TB, resp *http.Response, wantStatus int) *goquery.Document {
	t.Helper()
	defer resp.Body.Close()

	require.Equal(t, wantStatus, resp.StatusCode, "unexpected status for %s", resp.Request.URL.Path)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "read body")
	return ParseHTML(t, body)
}

// AuthState returns the text of the navbar's auth diagnostic, e.g. "isAuth: true".
func AuthState(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("[data-auth-state]").Text())
}
