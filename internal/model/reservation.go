package model

import "time"

// DefaultDurationMinutes is used when a request does not say how long the
// concepts are needed.
const DefaultDurationMinutes = 60

// Reservation records a holder's claim on a number of concepts for a
// window of time.  One logical request always becomes one record; the
// Quantity field carries how many units it occupies.  The window is
// half-open: the reservation occupies [Start, End()).
//
// Fields:
//  ID              – stable identifier (uuid) of the record.
//  HolderID        – opaque id of the requester; one holder may own many records.
//  Start           – start of occupancy at minute resolution, venue time zone.
//  DurationMinutes – length of the window, always > 0.
//  Quantity        – number of units occupied, always >= 1.
//  CreatedAt       – when the record was written.
type Reservation struct {
	ID              string    `json:"id"`
	HolderID        string    `json:"holder_id"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
	Quantity        int       `json:"quantity"`
	CreatedAt       time.Time `json:"created_at"`
}

// End returns the first instant the reservation no longer occupies.
func (r Reservation) End() time.Time {
	return r.Start.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the reservation shares at least one instant
// with [start, end).  Touching windows do not overlap.
func (r Reservation) Overlaps(start, end time.Time) bool {
	return r.Start.Before(end) && r.End().After(start)
}

// Covers reports whether the reservation occupies the instant t.
func (r Reservation) Covers(t time.Time) bool {
	return !r.Start.After(t) && r.End().After(t)
}

// Matches reports whether the record is the holder's reservation for the
// given window, which is how holders refer to their bookings.
func (r Reservation) Matches(holderID string, start time.Time, durationMinutes int) bool {
	return r.HolderID == holderID && r.Start.Equal(start) && r.DurationMinutes == durationMinutes
}

// Negotiation is the pending partial offer of a single session.  It is
// created when fewer units are free than were requested and lives until
// the holder answers or sends a new booking request.
type Negotiation struct {
	HolderID          string    `json:"holder_id"`
	Start             time.Time `json:"start"`
	DurationMinutes   int       `json:"duration_minutes"`
	RequestedQuantity int       `json:"requested_quantity"`
	OfferedQuantity   int       `json:"offered_quantity"`
	CreatedAt         time.Time `json:"created_at"`
}
