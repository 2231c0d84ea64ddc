package mapview

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/handyhub/dispatch-api/internal/domain/booking"
	"github.com/handyhub/dispatch-api/internal/pkg/eventbus"
	"github.com/handyhub/dispatch-api/internal/pkg/recordstore"
)

func eventMessage(t *testing.T, event booking.Event) eventbus.Message {
	t.Helper()
	value, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return eventbus.Message{Key: event.BookingID, Value: value}
}

func TestPrepublisher_PublishesCreatedBooking(t *testing.T) {
	svc := booking.NewService(booking.NewRepository(recordstore.NewMemoryStore()))
	lat, lng := 14.5995, 120.9842
	b, err := svc.Create(context.Background(), "seek-1", &booking.CreateRequest{
		ProviderID: "prov-1",
		JobTitle:   "Fix sink",
		Location:   &booking.LocationInput{Latitude: &lat, Longitude: &lng},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	st := &fakeStorage{}
	worker := NewPrepublisher(svc, NewPublisher(st))

	msg := eventMessage(t, booking.Event{Type: booking.EventCreated, BookingID: b.ID})
	if err := worker.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if st.puts != 1 {
		t.Fatalf("expected one upload, got %d", st.puts)
	}
	for key := range st.objects {
		if !strings.HasPrefix(key, "maps/"+b.ID+"/") {
			t.Fatalf("unexpected key %s", key)
		}
	}

	// Redelivery finds the object already stored.
	if err := worker.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if st.puts != 1 {
		t.Fatalf("expected no second upload, got %d", st.puts)
	}
}

type stubBookings map[string]*booking.Booking

func (s stubBookings) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	b, ok := s[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return b, nil
}

func TestPrepublisher_SkipsIrrelevantMessages(t *testing.T) {
	// Stored coordinates that failed normalization leave Location nil.
	bookings := stubBookings{"b1": {ID: "b1", JobTitle: "No map", Status: booking.StatusPending}}

	st := &fakeStorage{}
	worker := NewPrepublisher(bookings, NewPublisher(st))
	ctx := context.Background()

	cases := []eventbus.Message{
		{Key: "x", Value: []byte("not json")},
		eventMessage(t, booking.Event{Type: booking.EventAccepted, BookingID: "b1"}),
		eventMessage(t, booking.Event{Type: booking.EventCreated, BookingID: "missing"}),
		eventMessage(t, booking.Event{Type: booking.EventCreated, BookingID: "b1"}),
	}
	for i, msg := range cases {
		if err := worker.HandleMessage(ctx, msg); err != nil {
			t.Fatalf("case %d: unexpected error %v", i, err)
		}
	}
	if st.puts != 0 {
		t.Fatalf("expected no uploads, got %d", st.puts)
	}
}
