package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// UsageConsumer listens on QueueName and appends one line per event to
// <Dir>/usage-YYYY-MM-DD.log, where the date is the reservation's day.
// The files give the venue a per-day record of who booked, cancelled and
// used how many concepts.
type UsageConsumer struct {
	URL string
	Dir string

	mu sync.Mutex // serialises file appends
}

// NewUsageConsumer returns a consumer writing reports under dir.
func NewUsageConsumer(url, dir string) *UsageConsumer {
	return &UsageConsumer{URL: url, Dir: dir}
}

// Run connects to RabbitMQ, declares the queue (durable) and consumes
// until ctx is cancelled.  Broker failures trigger a reconnect with
// exponential backoff; a message that cannot be handled is rejected
// without requeue so it cannot spin.
func (u *UsageConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(u.URL)
		if err != nil {
			log.Printf("usage-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = u.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("usage-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (u *UsageConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("usage-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
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
			if err := u.Handle(d.Body); err != nil {
				log.Printf("usage-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one event and appends its usage line.
func (u *UsageConsumer) Handle(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Date == "" {
		return errors.New("event without date")
	}
	if _, err := time.Parse("2006-01-02", ev.Date); err != nil {
		return fmt.Errorf("event date %q: %w", ev.Date, err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", u.Dir, err)
	}
	fpath := filepath.Join(u.Dir, "usage-"+ev.Date+".log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open report file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatUsageLine(ev)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// FormatUsageLine renders one report line, newline included.
func FormatUsageLine(ev ReservationEvent) string {
	return fmt.Sprintf("[%s] %s | holder=%s | start=%s %s | duration=%dm | concepts=%d | reservation=%s\n",
		ev.OccurredAt, ev.Kind, ev.HolderID, ev.Date, ev.Time, ev.DurationMinutes, ev.Quantity, ev.ReservationID)
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
