package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer reads the activity queue and appends one line per event to a
// log file.
type Consumer struct {
	URL     string
	LogPath string
	Log     *zap.Logger
}

// Run connects to RabbitMQ, declares the activity queue (durable) and
// consumes until ctx is cancelled.  Broker failures trigger a reconnect with
// exponential backoff capped at 30s; a message that cannot be handled is
// rejected without requeue so the consumer never spins on it.
func (c *Consumer) Run(ctx context.Context) error {
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.Warn("activity-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("activity-consumer: consume loop ended; reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("activity-consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(ActivityQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(ActivityQueue, "", false, false, false, false, nil)
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
			if err := c.Handle(d.Body); err != nil {
				log.Warn("activity-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle appends a single human-readable line for the encoded event.
func (c *Consumer) Handle(body []byte) error {
	var ev ActivityEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	path := c.LogPath
	if path == "" {
		path = filepath.Join("logs", "activity.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders an event as one log line.
func FormatLine(ev ActivityEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | user_id=%d", ev.OccurredAt, ev.Type, ev.UserID)
	if ev.ServiceID != 0 {
		fmt.Fprintf(&b, " | service_id=%d", ev.ServiceID)
	}
	if len(ev.Fields) > 0 {
		fmt.Fprintf(&b, " | fields=[%s]", strings.Join(ev.Fields, ","))
	}
	if ev.ItemKind != "" {
		fmt.Fprintf(&b, " | item=%s:%d", ev.ItemKind, ev.ItemID)
	}
	if ev.SubscriptionID != 0 {
		fmt.Fprintf(&b, " | subscription_id=%d", ev.SubscriptionID)
	}
	if ev.Message != "" {
		fmt.Fprintf(&b, " | message=%q", ev.Message)
	}
	b.WriteByte('\n')
	return b.String()
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
