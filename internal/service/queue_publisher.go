package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/model-marketplace/internal/queue"
)

// Publisher sends domain events to RabbitMQ. Errors are logged and
// returned so callers can ignore failures without interrupting the main
// request flow; moderation treats every publish as best-effort.
type Publisher struct {
	URL string
}

// NewPublisher returns a Publisher for the given AMQP broker URL.
func NewPublisher(url string) *Publisher { return &Publisher{URL: url} }

// PublishModerationDecided publishes a ModerationDecidedEvent to the
// moderation.decided queue. The queue is declared durable and messages are
// marked persistent so decisions survive broker restarts.
func (p *Publisher) PublishModerationDecided(ctx context.Context, event q.ModerationDecidedEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare so publishing works before the consumer starts.
	if _, err := ch.QueueDeclare(q.ModerationQueueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.ModerationQueueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
