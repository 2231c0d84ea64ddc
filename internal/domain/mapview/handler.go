package mapview

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/handyhub/dispatch-api/internal/domain/booking"
	"github.com/handyhub/dispatch-api/internal/domain/geo"
	"github.com/handyhub/dispatch-api/internal/middleware"
	"github.com/handyhub/dispatch-api/internal/pkg/errorhandler"
	"github.com/handyhub/dispatch-api/internal/pkg/response"
)

// BookingReader defines the booking lookup needed to draw a map
type BookingReader interface {
	GetForActor(ctx context.Context, id, actorID string) (*booking.Booking, error)
}

// Handler serves booking location maps
type Handler struct {
	bookings  BookingReader
	publisher *Publisher // nil if object storage disabled
}

// NewHandler creates map handler
func NewHandler(bookings BookingReader, publisher *Publisher) *Handler {
	return &Handler{bookings: bookings, publisher: publisher}
}

// PublishResponse is returned by POST /bookings/{id}/map/publish
type PublishResponse struct {
	URL  string `json:"url"`
	ETag string `json:"etag"`
}

// Get handles GET /bookings/{id}/map
// @Summary Standalone map page for a booking location
// @Tags Map
// @Produce html
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {string} string "HTML page"
// @Success 304
// @Failure 403,404,422 {object} response.Response
// @Router /bookings/{id}/map [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.render(w, r)
	if !ok {
		return
	}

	etag := `"` + doc.ETag + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, max-age=300")
	if match := r.Header.Get("If-None-Match"); match != "" && etagMatches(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(doc.HTML)
}

// Publish handles POST /bookings/{id}/map/publish
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		response.Error(w, http.StatusNotImplemented, "PUBLISH_DISABLED", "Map publishing is not configured")
		return
	}

	doc, ok := h.render(w, r)
	if !ok {
		return
	}

	url, err := h.publisher.Publish(r.Context(), chi.URLParam(r, "id"), doc)
	if err != nil {
		errorhandler.Unavailable(r.Context(), w, "STORAGE_UNAVAILABLE", "Map storage is unavailable", err)
		return
	}

	response.OK(w, &PublishResponse{URL: url, ETag: doc.ETag})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request) (*Document, bool) {
	ctx := r.Context()
	b, err := h.bookings.GetForActor(ctx, chi.URLParam(r, "id"), middleware.GetActorID(ctx))
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			response.NotFound(w, "Booking not found")
		case errors.Is(err, booking.ErrNotParticipant):
			response.Forbidden(w, err.Error())
		case errors.Is(err, booking.ErrStoreUnavailable):
			errorhandler.Unavailable(ctx, w, "STORE_UNAVAILABLE", "Booking store is unavailable", err)
		default:
			errorhandler.Internal(ctx, w, err)
		}
		return nil, false
	}

	doc, err := RenderBooking(b)
	if err != nil {
		if errors.Is(err, geo.ErrInvalidLocation) {
			response.Error(w, http.StatusUnprocessableEntity, "MAP_UNAVAILABLE", "Booking has no valid location")
		} else {
			errorhandler.Internal(ctx, w, err)
		}
		return nil, false
	}
	return doc, true
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
