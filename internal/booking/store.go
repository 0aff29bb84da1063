package booking

import (
	"context"

	"github.com/iliyamo/concept-booking/internal/model"
)

// ReservationStore is the durable, ordered collection of reservation
// records.  The engine only needs to append one record, replace the whole
// collection and read it back in order.
type ReservationStore interface {
	Append(ctx context.Context, r model.Reservation) error
	ReplaceAll(ctx context.Context, rs []model.Reservation) error
	All(ctx context.Context) ([]model.Reservation, error)
}

// NegotiationStore keeps at most one pending partial offer per holder.
// Get reports ok=false when the holder has none.
type NegotiationStore interface {
	Get(ctx context.Context, holderID string) (model.Negotiation, bool, error)
	Put(ctx context.Context, n model.Negotiation) error
	Delete(ctx context.Context, holderID string) error
}

// VenueSource returns the administrator-controlled venue configuration.
// It is called on every validation so changes apply immediately.
type VenueSource interface {
	Venue(ctx context.Context) (model.Venue, error)
}

// EventPublisher receives a notification after every change to the
// reservation set.  Failures are logged by the engine and otherwise
// ignored; they never undo a booking.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Event kinds published by the engine.
const (
	EventConfirmed = "reservation.confirmed"
	EventCancelled = "reservation.cancelled"
	EventExpired   = "reservation.expired"
)

// Event describes one change to the reservation set.
type Event struct {
	Kind        string
	Reservation model.Reservation
}
