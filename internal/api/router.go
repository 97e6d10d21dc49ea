package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Delete("/notes/{name}", h.DeleteNote)

	r.Get("/rules", h.ListRules)
	r.Put("/rules/{name}", h.UpsertRule)
	r.Delete("/rules/{name}", h.DeleteRule)
	r.Get("/rules/{name}/notes", h.RuleNotes)
	r.Delete("/rules/{name}/keywords/{keyword}", h.RemoveKeyword)

	r.Get("/search", h.Search)
	r.Post("/index", h.Reindex)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
