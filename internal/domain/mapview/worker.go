package mapview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/handyhub/dispatch-api/internal/domain/booking"
	"github.com/handyhub/dispatch-api/internal/pkg/eventbus"
)

// BookingGetter loads a booking by id.
type BookingGetter interface {
	GetByID(ctx context.Context, id string) (*booking.Booking, error)
}

// Prepublisher uploads map pages as soon as bookings are created or edited,
// so the first viewer does not wait on object storage.
type Prepublisher struct {
	bookings  BookingGetter
	publisher *Publisher
}

// NewPrepublisher creates a Prepublisher.
func NewPrepublisher(bookings BookingGetter, publisher *Publisher) *Prepublisher {
	return &Prepublisher{bookings: bookings, publisher: publisher}
}

// HandleMessage handles one bus message. Events that do not change the page,
// bookings that no longer exist and bookings without a location are skipped.
func (p *Prepublisher) HandleMessage(ctx context.Context, msg eventbus.Message) error {
	var event booking.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Warn().Err(err).Str("key", msg.Key).Msg("Skipping malformed booking event")
		return nil
	}
	if event.Type != booking.EventCreated && event.Type != booking.EventUpdated {
		return nil
	}

	b, err := p.bookings.GetByID(ctx, event.BookingID)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return nil
		}
		return fmt.Errorf("load booking %s: %w", event.BookingID, err)
	}
	if !b.HasLocation() {
		log.Debug().Str("booking_id", b.ID).Msg("Booking has no location, no map to publish")
		return nil
	}

	doc, err := RenderBooking(b)
	if err != nil {
		return err
	}
	url, err := p.publisher.Publish(ctx, b.ID, doc)
	if err != nil {
		return fmt.Errorf("publish map %s: %w", b.ID, err)
	}

	log.Info().Str("booking_id", b.ID).Str("url", url).Msg("Map page published")
	return nil
}
