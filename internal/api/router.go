package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wikarden/internal/pageservice"
)

// NewRouter creates a chi router with all API routes mounted.
// An empty token disables Bearer authentication.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *pageservice.Service, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(BearerAuth(token))

	// Pages.
	r.Get("/pages", h.ListPages)
	r.Get("/pages/*", h.GetPage)
	r.Get("/source/*", h.GetSource)

	// Search.
	r.Get("/search", h.Search)

	// Builds.
	r.Get("/builds/last", h.LastBuild)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
