// Package publisher puts account integration events on the event bus.
package publisher

import (
	"context"
	"errors"
	"fmt"

	"tokenvault/internal/events/models"
)

// Record headers set on every published event.
const (
	HeaderEventType = "event-type"
	HeaderEventID   = "event-id"
)

// Producer is satisfied by the Kafka producer.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Publisher writes events keyed by tenant, so every event of one account
// lands on the same partition in publication order.
type Publisher struct {
	producer Producer
	topic    string
}

func New(producer Producer, topic string) (*Publisher, error) {
	if producer == nil {
		return nil, errors.New("producer is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	return &Publisher{producer: producer, topic: topic}, nil
}

func (p *Publisher) Publish(ctx context.Context, event models.IntegrationEvent) error {
	value, err := event.Encode()
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	headers := map[string]string{
		HeaderEventType: string(event.Type),
		HeaderEventID:   event.ID.String(),
	}
	return p.producer.Produce(ctx, p.topic, []byte(event.ClientID.String()), value, headers)
}
