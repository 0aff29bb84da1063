// Package queue defines the reservation event payload exchanged over the
// message broker and the consumer that turns those events into daily
// usage reports.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/concept-booking/internal/booking"
)

// QueueName is the durable queue every reservation event goes through.
const QueueName = "booking.events"

// ReservationEvent is published whenever a reservation is confirmed,
// cancelled or expires.  It carries enough to write a usage line without
// querying the primary store.  Date and Time are wall-clock values of the
// venue.
type ReservationEvent struct {
	EventID         string `json:"event_id"`
	Kind            string `json:"kind"`
	ReservationID   string `json:"reservation_id"`
	HolderID        string `json:"holder_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	Quantity        int    `json:"quantity"`
	OccurredAt      string `json:"occurred_at"`
}

// NewReservationEvent converts an engine event into its wire form.
func NewReservationEvent(ev booking.Event, loc *time.Location, at time.Time) ReservationEvent {
	if loc == nil {
		loc = time.UTC
	}
	start := ev.Reservation.Start.In(loc)
	return ReservationEvent{
		EventID:         uuid.NewString(),
		Kind:            ev.Kind,
		ReservationID:   ev.Reservation.ID,
		HolderID:        ev.Reservation.HolderID,
		Date:            start.Format("2006-01-02"),
		Time:            start.Format("15:04"),
		DurationMinutes: ev.Reservation.DurationMinutes,
		Quantity:        ev.Reservation.Quantity,
		OccurredAt:      at.UTC().Format(time.RFC3339),
	}
}
