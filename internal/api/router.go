package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/othala/internal/chain"
	"github.com/starford/othala/internal/index"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(engine *chain.Engine, db *index.DB, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(engine, db)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Chain state.
	r.Get("/status", h.Status)
	r.Get("/verify", h.Verify)

	// Entries (read-only; new entries come from the commit path).
	r.Get("/entries", h.ListEntries)
	r.Get("/entries/{filename}", h.GetEntry)
	r.Get("/entries/{filename}/raw", h.GetEntryRaw)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
