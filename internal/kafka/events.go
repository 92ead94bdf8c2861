package kafka

import (
	"context"
	"encoding/json"

	"storefront-be/internal/order"

	"github.com/segmentio/kafka-go"
)

type publisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error
}

// OrderEvents publishes order lifecycle events keyed by order id.
type OrderEvents struct {
	p        publisher
	producer string
}

func NewOrderEvents(p *Producer, producer string) *OrderEvents {
	return &OrderEvents{p: p, producer: producer}
}

func (e *OrderEvents) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	env, err := order.NewOrderCreatedEnvelope(o, e.producer)
	if err != nil {
		return err
	}

	b, err := json.Marshal(env)
	if err != nil {
		return err
	}

	return e.p.Publish(ctx, []byte(env.CorrelationID), b,
		kafka.Header{Key: "event_type", Value: []byte(env.EventType)},
	)
}
