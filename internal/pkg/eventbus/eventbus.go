// Package eventbus publishes and consumes JSON domain events over Kafka or
// RabbitMQ.
package eventbus

import (
	"context"
	"fmt"
)

// Supported bus drivers.
const (
	DriverNone     = "none"
	DriverKafka    = "kafka"
	DriverRabbitMQ = "rabbitmq"
)

// Message is one event as delivered to a consumer.
type Message struct {
	Key   string
	Value []byte
}

// Publisher sends v, JSON encoded, under routing/partition key.
type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
	Close() error
}

// Consumer delivers messages to handle until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, handle func(ctx context.Context, msg Message) error) error
	Close() error
}

// Config selects and configures the bus.
type Config struct {
	Driver   string
	Brokers  []string
	Topic    string
	URL      string
	Exchange string
}

// NewPublisher returns the publisher for cfg.Driver.
func NewPublisher(cfg Config) (Publisher, error) {
	switch cfg.Driver {
	case "", DriverNone:
		return Noop{}, nil
	case DriverKafka:
		p, err := NewKafkaPublisher(cfg.Brokers, cfg.Topic)
		if err != nil {
			return nil, err
		}
		return p, nil
	case DriverRabbitMQ:
		p, err := NewRabbitPublisher(cfg.URL, cfg.Exchange)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown event bus driver %q", cfg.Driver)
	}
}

// NewConsumer returns a consumer for cfg.Driver. group names the Kafka
// consumer group or the RabbitMQ queue; keys are RabbitMQ binding keys.
func NewConsumer(cfg Config, group string, keys []string) (Consumer, error) {
	switch cfg.Driver {
	case DriverKafka:
		c, err := NewKafkaConsumer(cfg.Brokers, cfg.Topic, group)
		if err != nil {
			return nil, err
		}
		return c, nil
	case DriverRabbitMQ:
		c, err := NewRabbitConsumer(cfg.URL, cfg.Exchange, group, keys)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("event bus driver %q cannot consume", cfg.Driver)
	}
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(ctx context.Context, key string, v any) error { return nil }
func (Noop) Close() error                                         { return nil }
