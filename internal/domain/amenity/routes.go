package amenity

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns collaborator-facing amenity routes. The availability
// handler lives in the booking domain and is mounted here so the URL keeps
// the amenity as its subject.
func (h *Handler) Routes(apiKeyMiddleware func(http.Handler) http.Handler, availability http.HandlerFunc) chi.Router {
	r := chi.NewRouter()

	r.Use(apiKeyMiddleware)
	r.Get("/", h.List)
	r.Get("/{id}/availability", availability)

	return r
}

// AdminRoutes returns admin-only amenity routes
func (h *Handler) AdminRoutes(adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(adminMiddleware)

	r.Post("/amenities", h.Upsert)
	r.Get("/amenities/{id}/rules", h.ListRules)
	r.Post("/rules", h.CreateRule)

	return r
}
