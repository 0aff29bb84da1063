package booking

import (
	"context"
	"time"

	"github.com/iliyamo/concept-booking/internal/model"
)

// Sweeper removes reservations whose window has fully elapsed.  It is run
// before every read that computes availability or lists reservations, so
// the calculator never sees a logically expired record.  Sweeping is
// idempotent and is not cached between calls.
type Sweeper struct {
	Store ReservationStore
}

// Sweep removes every reservation with End() <= now and returns the
// removed records in store order.  When nothing has expired the store is
// not written.
func (s Sweeper) Sweep(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	all, err := s.Store.All(ctx)
	if err != nil {
		return nil, persistErr("load reservations", err)
	}
	kept := make([]model.Reservation, 0, len(all))
	var removed []model.Reservation
	for _, r := range all {
		if r.End().After(now) {
			kept = append(kept, r)
			continue
		}
		removed = append(removed, r)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if err := s.Store.ReplaceAll(ctx, kept); err != nil {
		return nil, persistErr("remove expired reservations", err)
	}
	return removed, nil
}
