package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// OrderLogFile is the file, relative to the consumer's log directory,
// that order events are appended to.
const OrderLogFile = "orders.log"

// StartOrderConsumer connects to RabbitMQ, declares both order queues and
// appends every event to dir/orders.log as a single line.  It reconnects
// with exponential backoff and returns only when ctx is cancelled.
// Malformed messages are rejected without requeue.
func StartOrderConsumer(ctx context.Context, url, dir string) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			slog.Warn("order-consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, dir)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("order-consumer: consume loop ended; reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, dir string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		slog.Warn("order-consumer: set QoS failed", "err", err)
	}

	placed, err := subscribe(ch, OrderPlacedQueue)
	if err != nil {
		return err
	}
	changed, err := subscribe(ch, OrderStatusChangedQueue)
	if err != nil {
		return err
	}

	for {
		var (
			d  amqp.Delivery
			ok bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-placed:
		case d, ok = <-changed:
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := HandleMessage(dir, d.RoutingKey, d.Body); err != nil {
			slog.Error("order-consumer: handle message failed", "queue", d.RoutingKey, "err", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
}

func subscribe(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("queue consume %s: %w", queue, err)
	}
	return msgs, nil
}

// HandleMessage decodes one delivery from queue and appends its log line
// to dir/orders.log.
func HandleMessage(dir, queue string, body []byte) error {
	line, err := formatLine(queue, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, OrderLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(queue string, body []byte) (string, error) {
	switch queue {
	case OrderPlacedQueue:
		var ev OrderPlacedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Order placed | order_id=%s | user=%s | product=%q | qty=%d | total=%s\n",
			ev.PlacedAt, ev.OrderID, ev.UserEmail, ev.ProductName, ev.Quantity, ev.TotalPrice), nil
	case OrderStatusChangedQueue:
		var ev OrderStatusChangedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Order status changed | order_id=%s | user_id=%s | status=%s | by=%s\n",
			ev.ChangedAt, ev.OrderID, ev.UserID, ev.Status, ev.ChangedBy), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}
