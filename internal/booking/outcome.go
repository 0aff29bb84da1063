package booking

import (
	"time"

	"github.com/iliyamo/concept-booking/internal/model"
)

// Kind tells the caller which branch of the booking flow was taken.
type Kind string

const (
	Confirmed      Kind = "confirmed"
	PartialOffer   Kind = "partial_offer"
	Rejected       Kind = "rejected"
	Cancelled      Kind = "cancelled"
	NoPendingOffer Kind = "no_pending_offer"
	Removed        Kind = "removed"
	NotFound       Kind = "not_found"
)

// Outcome is the result of an engine operation that did not fail on
// storage.  Err holds the typed reason for Rejected, PartialOffer,
// NoPendingOffer and NotFound outcomes; Reason is its display text.
type Outcome struct {
	Kind        Kind                `json:"kind"`
	Reservation *model.Reservation  `json:"reservation,omitempty"`
	Removed     []model.Reservation `json:"removed,omitempty"`
	Available   int                 `json:"available"`
	Reason      string              `json:"reason,omitempty"`
	Err         error               `json:"-"`
}

func rejected(err error) Outcome {
	return Outcome{Kind: Rejected, Reason: err.Error(), Err: err}
}

func offer(requested, available int) Outcome {
	err := &CapacityError{Requested: requested, Available: available}
	return Outcome{Kind: PartialOffer, Available: available, Reason: err.Error(), Err: err}
}

// Request is a structured booking request.  The chat layer has already
// turned the holder's text into these values.
type Request struct {
	HolderID        string
	Start           time.Time
	DurationMinutes int
	Quantity        int
}
