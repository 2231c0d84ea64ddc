package eventbus

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestNewPublisherNoneIsNoop(t *testing.T) {
	for _, driver := range []string{"", DriverNone} {
		p, err := NewPublisher(Config{Driver: driver})
		if err != nil {
			t.Fatalf("driver %q: %v", driver, err)
		}
		if _, ok := p.(Noop); !ok {
			t.Fatalf("driver %q: expected Noop, got %T", driver, p)
		}
		if err := p.Publish(context.Background(), "b1", map[string]string{"type": "booking.created"}); err != nil {
			t.Fatalf("noop publish: %v", err)
		}
	}
}

func TestNewPublisherRejectsUnknownDriver(t *testing.T) {
	if _, err := NewPublisher(Config{Driver: "nats"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestKafkaPublisherNeedsTopic(t *testing.T) {
	if _, err := NewKafkaPublisher([]string{"localhost:9092"}, ""); err == nil {
		t.Fatal("expected error without topic")
	}
}

func TestNewConsumerRequiresRealBus(t *testing.T) {
	if _, err := NewConsumer(Config{Driver: DriverNone}, "map-worker", nil); err == nil {
		t.Fatal("expected error for none driver")
	}
}

func TestKafkaPublisherConfig(t *testing.T) {
	p, err := NewKafkaPublisher([]string{"k1:9092", "k2:9092"}, "booking-events")
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	defer p.Close()

	if p.writer.Topic != "booking-events" {
		t.Fatalf("unexpected topic %q", p.writer.Topic)
	}
	if _, ok := p.writer.Balancer.(*kafka.Hash); !ok {
		t.Fatalf("events must be keyed by booking, got balancer %T", p.writer.Balancer)
	}
}
