package booking

import (
	"context"
	"time"
)

// Event types published after a booking write is confirmed by the store.
const (
	EventCreated  = "booking.created"
	EventUpdated  = "booking.updated"
	EventAccepted = "booking.accepted"
	EventDeclined = "booking.declined"
)

// Event tells both sides of a booking that their views should re-query.
type Event struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	SeekerID   string    `json:"seeker_id"`
	ProviderID string    `json:"provider_id"`
	Status     Status    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Recipients returns the actor ids that should receive the event.
func (e Event) Recipients() []string {
	return []string{e.SeekerID, e.ProviderID}
}

// EventPublisher delivers booking events (message bus, websocket hub).
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, event Event) error
}

func eventFor(b *Booking, eventType string, at time.Time) Event {
	return Event{
		Type:       eventType,
		BookingID:  b.ID,
		SeekerID:   b.SeekerID,
		ProviderID: b.ProviderID,
		Status:     b.Status,
		OccurredAt: at.UTC(),
	}
}

func decisionEvent(status Status) string {
	if status == StatusAccepted {
		return EventAccepted
	}
	return EventDeclined
}
