package booking

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/handyhub/dispatch-api/internal/middleware"
)

// Routes returns booking router. decisionLimit wraps the status endpoint.
func (h *Handler) Routes(authMiddleware, decisionLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/my", h.ListMy)
	r.Get("/{id}", h.GetByID)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSeeker())
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Update)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireProvider())
		r.With(decisionLimit).Patch("/{id}/status", h.UpdateStatus)
	})

	return r
}
