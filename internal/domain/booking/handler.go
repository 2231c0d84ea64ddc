package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/handyhub/dispatch-api/internal/domain/geo"
	"github.com/handyhub/dispatch-api/internal/middleware"
	"github.com/handyhub/dispatch-api/internal/pkg/errorhandler"
	"github.com/handyhub/dispatch-api/internal/pkg/response"
	"github.com/handyhub/dispatch-api/internal/pkg/validator"
)

// Handler handles booking HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates booking handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /bookings
// @Summary Create a booking for one provider
// @Tags Booking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRequest true "Booking"
// @Success 201 {object} response.Response{data=BookingResponse}
// @Failure 400,403,422,503 {object} response.Response
// @Router /bookings [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	seekerID := middleware.GetActorID(r.Context())
	b, err := h.service.Create(r.Context(), seekerID, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, BookingResponseFromEntity(b))
}

// GetByID handles GET /bookings/{id}
// @Summary Get a booking visible to its seeker or provider
// @Tags Booking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Response{data=BookingResponse}
// @Failure 403,404,503 {object} response.Response
// @Router /bookings/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := h.service.GetForActor(r.Context(), id, middleware.GetActorID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, BookingResponseFromEntity(b))
}

// ListMy handles GET /bookings/my
func (h *Handler) ListMy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookings, err := h.service.ListForViewer(ctx, Role(middleware.GetRole(ctx)), middleware.GetActorID(ctx))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]*BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = BookingResponseFromEntity(b)
	}

	response.WithMeta(w, items, response.Meta{Total: len(items)})
}

// Update handles PATCH /bookings/{id}
// @Summary Edit a pending booking
// @Tags Booking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body UpdateDetailsRequest true "Fields to update"
// @Success 200 {object} response.Response{data=BookingResponse}
// @Failure 400,403,404,409,422,503 {object} response.Response
// @Router /bookings/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	id := chi.URLParam(r, "id")
	b, err := h.service.UpdateDetails(r.Context(), middleware.GetActorID(r.Context()), id, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, BookingResponseFromEntity(b))
}

// UpdateStatus handles PATCH /bookings/{id}/status
// @Summary Accept or decline a pending booking
// @Tags Booking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body UpdateStatusRequest true "Decision"
// @Success 200 {object} response.Response{data=TransitionResponse}
// @Failure 400,403,404,409,422,503 {object} response.Response
// @Router /bookings/{id}/status [patch]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	id := chi.URLParam(r, "id")
	result, err := h.service.Transition(r.Context(), id, Status(req.Status), middleware.GetActorID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, &TransitionResponse{
		Booking: BookingResponseFromEntity(result.Booking),
		Changed: result.Changed,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, geo.ErrInvalidLocation):
		response.ValidationError(w, map[string]string{"location": "Location must be a valid latitude/longitude pair"})
	case errors.Is(err, ErrProviderRequired):
		response.ValidationError(w, map[string]string{"providerId": err.Error()})
	case errors.Is(err, ErrInvalidAmount):
		response.ValidationError(w, map[string]string{"amount": err.Error()})
	case errors.Is(err, ErrInvalidStatus):
		response.ValidationError(w, map[string]string{"status": err.Error()})
	case errors.Is(err, ErrSelfBooking):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrBookingNotFound):
		response.NotFound(w, "Booking not found")
	case errors.Is(err, ErrNotAssignedProvider),
		errors.Is(err, ErrNotSeeker),
		errors.Is(err, ErrNotParticipant):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		response.Error(w, http.StatusConflict, "ALREADY_DECIDED", "Booking was already decided")
	case errors.Is(err, ErrNotEditable):
		response.Error(w, http.StatusConflict, "NOT_EDITABLE", err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		errorhandler.Unavailable(r.Context(), w, "STORE_UNAVAILABLE", "Booking store is unavailable", err)
	default:
		errorhandler.Internal(r.Context(), w, err)
	}
}
