package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Handler processes one delivery body.  A returned error rejects the
// message without requeueing it.
type Handler func(ctx context.Context, body []byte) error

// Binding declares a durable queue bound to a topic exchange.
type Binding struct {
	Exchange    string
	Queue       string
	RoutingKeys []string
	Prefetch    int
}

// Consumer keeps a queue subscription alive across broker restarts.
type Consumer struct {
	url     string
	binding Binding
	handle  Handler
	log     *zap.Logger
}

func NewConsumer(url string, b Binding, h Handler, log *zap.Logger) *Consumer {
	if b.Prefetch <= 0 {
		b.Prefetch = 50
	}
	return &Consumer{url: url, binding: b, handle: h, log: log}
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("consumer: failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consumer: consume loop ended, reconnecting", zap.Error(err))
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

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.binding.Prefetch, 0, false); err != nil {
		c.log.Warn("consumer: set QoS failed", zap.Error(err))
	}
	b := c.binding
	if err := ch.ExchangeDeclare(b.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for _, key := range b.RoutingKeys {
		if err := ch.QueueBind(b.Queue, key, b.Exchange, false, nil); err != nil {
			return fmt.Errorf("queue bind %s: %w", key, err)
		}
	}
	msgs, err := ch.Consume(b.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.dispatch(ctx, d)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery) {
	if err := c.handle(ctx, d.Body); err != nil {
		c.log.Error("consumer: handle message failed",
			zap.String("queue", c.binding.Queue), zap.String("routing_key", d.RoutingKey), zap.Error(err))
		_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
		return
	}
	_ = d.Ack(false)
}
