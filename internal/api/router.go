package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Run history and manual triggering.
	r.Get("/runs", h.ListRuns)
	r.Post("/runs", h.TriggerRun)
	r.Get("/runs/{id}", h.GetRun)
	r.Get("/runs/{id}/fixity", h.FixityReport)

	// Ingest root contents.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.UploadDocument)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
