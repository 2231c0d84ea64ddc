package booking

import (
	"context"
	"errors"

	"github.com/handyhub/dispatch-api/internal/pkg/eventbus"
)

// busPublisher forwards booking events to the message bus keyed by booking id,
// so consumers see the events of one booking in order.
type busPublisher struct {
	bus eventbus.Publisher
}

// NewBusPublisher adapts an event bus publisher.
func NewBusPublisher(bus eventbus.Publisher) EventPublisher {
	return &busPublisher{bus: bus}
}

func (p *busPublisher) PublishBookingEvent(ctx context.Context, event Event) error {
	return p.bus.Publish(ctx, event.BookingID, event)
}

// MultiPublisher fans an event out to every publisher and joins their errors.
type MultiPublisher []EventPublisher

func (m MultiPublisher) PublishBookingEvent(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.PublishBookingEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
