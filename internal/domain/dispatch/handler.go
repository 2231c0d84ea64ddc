package dispatch

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/handyhub/dispatch-api/internal/domain/booking"
	"github.com/handyhub/dispatch-api/internal/middleware"
	"github.com/handyhub/dispatch-api/internal/pkg/errorhandler"
	"github.com/handyhub/dispatch-api/internal/pkg/response"
)

// Handler handles dispatch HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates dispatch handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns dispatch router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/board", h.Board)
	return r
}

// Board handles GET /dispatch/board
// @Summary Pending and decided bookings of the caller
// @Tags Dispatch
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=BoardResponse}
// @Failure 401,503 {object} response.Response
// @Router /dispatch/board [get]
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	board, err := h.service.Board(ctx, booking.Role(middleware.GetRole(ctx)), middleware.GetActorID(ctx))
	if err != nil {
		if errors.Is(err, booking.ErrStoreUnavailable) {
			errorhandler.Unavailable(ctx, w, "STORE_UNAVAILABLE", "Booking store is unavailable", err)
			return
		}
		errorhandler.Internal(ctx, w, err)
		return
	}

	response.OK(w, BoardResponseFromEntity(board))
}
