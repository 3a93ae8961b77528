package booking

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns booking routes. Writes come from trusted channel backends
// holding the service API key; resident listings require a JWT.
func (h *Handler) Routes(apiKeyMiddleware, authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(apiKeyMiddleware)
		r.Post("/", h.Execute)
		r.Post("/{id}/cancel", h.Cancel)
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/my", h.MyBookings)
		r.Get("/history", h.History)
	})

	return r
}
