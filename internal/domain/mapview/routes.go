package mapview

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the map router, mounted under /bookings/{id}/map
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.Get)
	r.Post("/publish", h.Publish)
	return r
}
