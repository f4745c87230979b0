package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends order events to RabbitMQ.  A nil Publisher, or one
// built with an empty URL, silently drops events so the storefront runs
// without a broker.
type Publisher struct {
	url  string
	dial func(url string) (*amqp.Connection, error)
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, dial: amqp.Dial}
}

// Enabled reports whether events are actually sent.
func (p *Publisher) Enabled() bool { return p != nil && p.url != "" }

// OrderPlaced publishes an OrderPlacedEvent.
func (p *Publisher) OrderPlaced(ctx context.Context, ev OrderPlacedEvent) error {
	return p.publish(ctx, OrderPlacedQueue, ev)
}

// OrderStatusChanged publishes an OrderStatusChangedEvent.
func (p *Publisher) OrderStatusChanged(ctx context.Context, ev OrderStatusChangedEvent) error {
	return p.publish(ctx, OrderStatusChangedQueue, ev)
}

// publish dials, declares the durable queue and sends one persistent
// message.  Errors are logged and returned so callers may ignore them.
func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
	if !p.Enabled() {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		slog.Error("rabbitmq: marshal event failed", "queue", queue, "err", err)
		return err
	}

	conn, err := p.dial(p.url)
	if err != nil {
		slog.Warn("rabbitmq: dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		slog.Warn("rabbitmq: channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		slog.Warn("rabbitmq: queue declare failed", "queue", queue, "err", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		slog.Warn("rabbitmq: publish failed", "queue", queue, "err", err)
		return err
	}
	return nil
}
