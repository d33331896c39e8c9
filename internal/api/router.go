package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notetidy/internal/tidy"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *tidy.Service, store SettingsStore, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, store)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes in the target folder.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)

	// Note operations.
	r.Post("/notes/stamp/*", h.StampNote)
	r.Post("/notes/strip/*", h.StripNote)
	r.Post("/notes/summarize/*", h.SummarizeNote)

	// Operation journal.
	r.Get("/journal", h.Journal)

	// Settings.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
