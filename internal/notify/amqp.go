// Package notify delivers domain events over AMQP and mail over SMTP.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

var ErrChannelClosed = errors.New("delivery channel closed")

// Envelope wraps every published event.
type Envelope struct {
	Event   string          `json:"event"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Close() error
}

// Client publishes events to a durable direct exchange, routed by event
// name, and consumes them from one durable queue bound to every event.
type Client struct {
	conn     *amqp091.Connection
	ch       channel
	exchange string
	queue    string
	now      func() time.Time
}

// Dial connects and declares the exchange, the queue and one binding per
// event name.
func Dial(url, exchange, queue string, events ...string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := newClient(ch, exchange, queue)
	c.conn = conn

	if err := c.setup(events); err != nil {
		c.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return c, nil
}

func newClient(ch channel, exchange, queue string) *Client {
	return &Client{ch: ch, exchange: exchange, queue: queue, now: time.Now}
}

func (c *Client) setup(events []string) error {
	if err := c.ch.ExchangeDeclare(c.exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := c.ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	for _, event := range events {
		if err := c.ch.QueueBind(c.queue, event, c.exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", event, err)
		}
	}

	return nil
}

// Publish sends payload as a persistent JSON message routed by event.
func (c *Client) Publish(ctx context.Context, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	at := c.now().UTC()

	body, err := json.Marshal(Envelope{Event: event, At: at, Payload: raw})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.ch.PublishWithContext(ctx, c.exchange, event, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    at,
		Type:         event,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}

	slog.DebugContext(ctx, "published event", "event", event, "exchange", c.exchange)

	return nil
}

// Consume hands every delivery to handler until ctx is done. Malformed
// messages are dropped, failed ones are requeued.
func (c *Client) Consume(ctx context.Context, handler func(context.Context, Envelope) error) error {
	msgs, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "consuming events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return ErrChannelClosed
			}

			var env Envelope
			if err := json.Unmarshal(d.Body, &env); err != nil {
				slog.ErrorContext(ctx, "failed to decode event", "error", err)
				_ = d.Nack(false, false)

				continue
			}

			if err := handler(ctx, env); err != nil {
				slog.ErrorContext(ctx, "failed to handle event", "event", env.Event, "error", err)
				_ = d.Nack(false, true)

				continue
			}

			_ = d.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	if c.ch != nil {
		c.ch.Close()
	}

	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}
