package booking

import (
	"errors"
	"fmt"
)

// ValidationError rejects a request that breaks a business rule: bad
// quantity, a start in the past, a closed period or outside opening hours.
// Reason is ready to be shown to the holder as is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// CapacityError reports that fewer units are free than were requested.
// Available is the number of units the holder could still get.
type CapacityError struct {
	Requested int
	Available int
}

func (e *CapacityError) Error() string {
	if e.Available <= 0 {
		return "no capacity left for that time, please choose another slot"
	}
	return fmt.Sprintf("only %d of %d requested unit(s) are free for that time", e.Available, e.Requested)
}

// PersistenceError wraps a failure of the reservation, negotiation or
// settings store.  The holder only sees a generic message; Err keeps the
// cause for logs.  The engine never retries on its own.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "could not save the booking, please try again"
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// StateError is returned for requests that refer to something that does
// not exist: answering without a pending offer, cancelling an unknown
// reservation.  It is a notice, never fatal.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string { return e.Reason }

var (
	errNoPendingOffer = &StateError{Reason: "there is no pending offer, please start a new booking"}
	errNotFound       = &StateError{Reason: "no such reservation"}
)

func persistErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistence reports whether err is (or wraps) a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
