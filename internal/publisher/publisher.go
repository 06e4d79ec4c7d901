// Package publisher sends domain events to RabbitMQ.  Errors are logged and
// returned so callers can ignore failures without interrupting the request
// that produced the event.
package publisher

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/practitioner-marketplace/internal/queue"
)

// Publisher dials the broker per message; event volume is one message per
// confirmed write, so no long-lived channel is kept.
type Publisher struct {
	url string
	log *zap.Logger
}

// New returns a Publisher for the given AMQP URL.
func New(url string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, log: log}
}

// Publish sends ev to the activity queue as a persistent message.
func (p *Publisher) Publish(ctx context.Context, ev queue.ActivityEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue.ActivityQueue, true, false, false, false, nil); err != nil {
		p.log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.ActivityQueue, false, false, msg); err != nil {
		p.log.Warn("rabbitmq: publish failed", zap.String("type", ev.Type), zap.Error(err))
		return err
	}
	return nil
}
