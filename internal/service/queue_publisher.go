// Package service holds adapters that connect the booking engine to
// outside systems.  The RabbitMQ publisher here turns reservation changes
// into queue messages; errors are logged and returned so the engine can
// ignore them without interrupting the booking flow.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/concept-booking/internal/booking"
	"github.com/iliyamo/concept-booking/internal/queue"
)

// QueuePublisher implements booking.EventPublisher over RabbitMQ.  It
// dials per message: reservation changes arrive at human pace, so a
// long-lived channel would mostly sit idle and need its own reconnect
// logic.
type QueuePublisher struct {
	URL string
	Loc *time.Location
	Now func() time.Time
}

// NewQueuePublisher returns a publisher for the broker at url.  Dates in
// the messages are rendered in loc.
func NewQueuePublisher(url string, loc *time.Location) *QueuePublisher {
	return &QueuePublisher{URL: url, Loc: loc, Now: time.Now}
}

// Publish sends ev to the booking.events queue as a persistent message.
func (p *QueuePublisher) Publish(ctx context.Context, ev booking.Event) error {
	body, err := json.Marshal(queue.NewReservationEvent(ev, p.Loc, p.Now()))
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

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

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue.QueueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Kind,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.QueueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// NopPublisher drops every event.  It stands in when QUEUE_ENABLED is off.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, booking.Event) error { return nil }
