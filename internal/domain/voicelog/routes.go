package voicelog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns voice log routes, restricted to the voice gateway's
// service API key.
func (h *Handler) Routes(apiKeyMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(apiKeyMiddleware)

	r.Post("/", h.Archive)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	return r
}
