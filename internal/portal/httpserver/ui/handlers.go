package ui

import (
	"net/http"

	"github.com/a-h/templ"

	"finitefield.org/auth-portal/internal/portal/templates/home"
)

// Handlers exposes HTTP handlers for portal pages.
type Handlers struct{}

// NewHandlers wires the UI handler set.
func NewHandlers() *Handlers {
	return &Handlers{}
}

// Home renders the landing page.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	templ.Handler(home.Page()).ServeHTTP(w, r)
}
