package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes registers the API routes and the static fallback. Unknown
// /api paths answer 404 JSON for any method, matching the API's error
// contract; everything outside /api is the UI bundle.
func setupRoutes(r chi.Router, h *handlers) {
	r.Route("/api", func(api chi.Router) {
		api.Get("/status", h.status)
		api.Post("/open", h.open)
		api.Get("/tables", h.tables)
		api.Get("/table/{name}", h.tableSummary)
		api.Get("/table/{name}/rows", h.tableRows)
		api.Get("/table/{name}/cell", h.tableCell)
		api.NotFound(h.apiNotFound)
		api.MethodNotAllowed(h.apiNotFound)
	})

	r.NotFound(h.fallback)
	r.MethodNotAllowed(h.fallback)
}
