package booking

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/concept-booking/internal/clock"
	"github.com/iliyamo/concept-booking/internal/model"
	"github.com/iliyamo/concept-booking/internal/obs"
)

// Manager runs the booking flow for every holder: validation, expiry
// sweep, capacity check, partial offers and persistence.
//
// Every operation that reads the reservation set and may write it back
// runs under one mutex covering the whole store, so the capacity check
// and the insert that follows it can never interleave with another
// request.  Contention is low: requests arrive at human pace.
type Manager struct {
	mu sync.Mutex

	store           ReservationStore
	sweeper         Sweeper
	negotiations    NegotiationStore
	venue           VenueSource
	clock           clock.Clock
	events          EventPublisher
	metrics         *obs.Metrics
	defaultDuration int
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock overrides the source of "now".
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithEvents publishes reservation changes to p.
func WithEvents(p EventPublisher) Option {
	return func(m *Manager) { m.events = p }
}

// WithMetrics records outcomes and latencies in mt.
func WithMetrics(mt *obs.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithDefaultDuration sets the duration used when a request carries none.
func WithDefaultDuration(minutes int) Option {
	return func(m *Manager) {
		if minutes > 0 {
			m.defaultDuration = minutes
		}
	}
}

// NewManager wires the engine to its stores.  All three dependencies are
// required.
func NewManager(store ReservationStore, negotiations NegotiationStore, venue VenueSource, opts ...Option) *Manager {
	if store == nil || negotiations == nil || venue == nil {
		panic("nil dependency passed to NewManager")
	}
	m := &Manager{
		store:           store,
		sweeper:         Sweeper{Store: store},
		negotiations:    negotiations,
		venue:           venue,
		clock:           clock.System{},
		defaultDuration: model.DefaultDurationMinutes,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RequestBooking handles a new booking request.  Any offer still pending
// for the holder is discarded first: the latest request wins.
//
// The returned error is non-nil only for store failures (*PersistenceError);
// business rejections come back as an Outcome of kind Rejected, and a
// shortage of units as PartialOffer.
func (m *Manager) RequestBooking(ctx context.Context, req Request) (out Outcome, err error) {
	began := time.Now()
	var pending []Event
	defer func() { m.finish(ctx, "request", began, pending, out, err) }()
	m.mu.Lock()
	defer m.mu.Unlock()

	if req.DurationMinutes == 0 {
		req.DurationMinutes = m.defaultDuration
	}
	if err := m.negotiations.Delete(ctx, req.HolderID); err != nil {
		return Outcome{}, persistErr("discard pending offer", err)
	}

	now := m.clock.Now()
	c := Candidate{Start: req.Start.In(now.Location()), DurationMinutes: req.DurationMinutes, Quantity: req.Quantity}
	venue, err := m.venue.Venue(ctx)
	if err != nil {
		return Outcome{}, persistErr("load venue settings", err)
	}
	if verr := Validate(c, now, venue); verr != nil {
		return rejected(verr), nil
	}

	free, expired, err := m.freeUnits(ctx, now, c, venue.Capacity)
	pending = append(pending, expired...)
	if err != nil {
		return Outcome{}, err
	}

	switch {
	case free >= c.Quantity:
		r, err := m.insert(ctx, req.HolderID, c, now)
		if err != nil {
			return Outcome{}, err
		}
		pending = append(pending, Event{Kind: EventConfirmed, Reservation: r})
		return Outcome{Kind: Confirmed, Reservation: &r, Available: free - c.Quantity}, nil
	case free > 0:
		n := model.Negotiation{
			HolderID:          req.HolderID,
			Start:             c.Start,
			DurationMinutes:   c.DurationMinutes,
			RequestedQuantity: c.Quantity,
			OfferedQuantity:   free,
			CreatedAt:         now,
		}
		if err := m.negotiations.Put(ctx, n); err != nil {
			return Outcome{}, persistErr("store partial offer", err)
		}
		return offer(c.Quantity, free), nil
	default:
		return rejected(&CapacityError{Requested: c.Quantity}), nil
	}
}

// RespondToOffer resolves the holder's pending partial offer.  Declining
// (or any answer the caller could not read as a yes) cancels it.
// Accepting books the offered quantity, provided the units are still
// free: if some were taken in the meantime the holder gets a new offer for
// what is left, and a rejection when nothing is.
func (m *Manager) RespondToOffer(ctx context.Context, holderID string, accept bool) (out Outcome, err error) {
	began := time.Now()
	var pending []Event
	defer func() { m.finish(ctx, "respond", began, pending, out, err) }()
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok, err := m.negotiations.Get(ctx, holderID)
	if err != nil {
		return Outcome{}, persistErr("load pending offer", err)
	}
	if !ok {
		return Outcome{Kind: NoPendingOffer, Reason: errNoPendingOffer.Reason, Err: errNoPendingOffer}, nil
	}
	if !accept {
		if err := m.negotiations.Delete(ctx, holderID); err != nil {
			return Outcome{}, persistErr("discard pending offer", err)
		}
		return Outcome{Kind: Cancelled, Reason: "booking cancelled, feel free to make a new one"}, nil
	}

	now := m.clock.Now()
	c := Candidate{Start: n.Start.In(now.Location()), DurationMinutes: n.DurationMinutes, Quantity: n.OfferedQuantity}
	venue, err := m.venue.Venue(ctx)
	if err != nil {
		return Outcome{}, persistErr("load venue settings", err)
	}
	if verr := Validate(c, now, venue); verr != nil {
		if err := m.negotiations.Delete(ctx, holderID); err != nil {
			return Outcome{}, persistErr("discard pending offer", err)
		}
		return rejected(verr), nil
	}

	free, expired, err := m.freeUnits(ctx, now, c, venue.Capacity)
	pending = append(pending, expired...)
	if err != nil {
		return Outcome{}, err
	}

	switch {
	case free >= c.Quantity:
		r, err := m.insert(ctx, holderID, c, now)
		if err != nil {
			return Outcome{}, err
		}
		pending = append(pending, Event{Kind: EventConfirmed, Reservation: r})
		if err := m.negotiations.Delete(ctx, holderID); err != nil {
			log.Printf("booking: reservation %s saved but offer for %s not cleared: %v", r.ID, holderID, err)
		}
		return Outcome{Kind: Confirmed, Reservation: &r, Available: free - c.Quantity}, nil
	case free > 0:
		n.OfferedQuantity = free
		n.CreatedAt = now
		if err := m.negotiations.Put(ctx, n); err != nil {
			return Outcome{}, persistErr("store partial offer", err)
		}
		return offer(n.RequestedQuantity, free), nil
	default:
		if err := m.negotiations.Delete(ctx, holderID); err != nil {
			return Outcome{}, persistErr("discard pending offer", err)
		}
		return rejected(&CapacityError{Requested: c.Quantity}), nil
	}
}

// Cancel removes the holder's reservations for the given window.  A zero
// duration means the default duration.  Cancelling something that does
// not exist leaves the store untouched and returns NotFound.
func (m *Manager) Cancel(ctx context.Context, holderID string, start time.Time, durationMinutes int) (out Outcome, err error) {
	began := time.Now()
	var pending []Event
	defer func() { m.finish(ctx, "cancel", began, pending, out, err) }()
	m.mu.Lock()
	defer m.mu.Unlock()

	if durationMinutes == 0 {
		durationMinutes = m.defaultDuration
	}
	expired, err := m.sweep(ctx, m.clock.Now())
	pending = append(pending, expired...)
	if err != nil {
		return Outcome{}, err
	}

	all, err := m.store.All(ctx)
	if err != nil {
		return Outcome{}, persistErr("load reservations", err)
	}
	kept := make([]model.Reservation, 0, len(all))
	var removed []model.Reservation
	for _, r := range all {
		if r.Matches(holderID, start, durationMinutes) {
			removed = append(removed, r)
			continue
		}
		kept = append(kept, r)
	}
	if len(removed) == 0 {
		return Outcome{Kind: NotFound, Reason: errNotFound.Reason, Err: errNotFound}, nil
	}
	if err := m.store.ReplaceAll(ctx, kept); err != nil {
		return Outcome{}, persistErr("remove reservation", err)
	}
	for _, r := range removed {
		pending = append(pending, Event{Kind: EventCancelled, Reservation: r})
	}
	return Outcome{Kind: Removed, Removed: removed}, nil
}

// ListFor returns the holder's live reservations, soonest first.
func (m *Manager) ListFor(ctx context.Context, holderID string) ([]model.Reservation, error) {
	var pending []Event
	defer func() { m.publish(ctx, pending) }()
	m.mu.Lock()
	defer m.mu.Unlock()

	expired, err := m.sweep(ctx, m.clock.Now())
	pending = expired
	if err != nil {
		return nil, err
	}
	all, err := m.store.All(ctx)
	if err != nil {
		return nil, persistErr("load reservations", err)
	}
	var mine []model.Reservation
	for _, r := range all {
		if r.HolderID == holderID {
			mine = append(mine, r)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].Start.Before(mine[j].Start) })
	return mine, nil
}

// ListAll returns every live reservation grouped by date, then start time,
// then holder.  When day is non-nil only that calendar date is returned.
func (m *Manager) ListAll(ctx context.Context, day *time.Time) ([]DaySchedule, error) {
	var pending []Event
	defer func() { m.publish(ctx, pending) }()
	m.mu.Lock()
	defer m.mu.Unlock()

	expired, err := m.sweep(ctx, m.clock.Now())
	pending = expired
	if err != nil {
		return nil, err
	}
	all, err := m.store.All(ctx)
	if err != nil {
		return nil, persistErr("load reservations", err)
	}
	return GroupSchedule(all, day), nil
}

// Availability reports how many units are free for the whole window.  It
// does not apply the booking policy; closed hours still show capacity.
func (m *Manager) Availability(ctx context.Context, start time.Time, durationMinutes int) (int, error) {
	var pending []Event
	defer func() { m.publish(ctx, pending) }()
	m.mu.Lock()
	defer m.mu.Unlock()

	if durationMinutes <= 0 {
		durationMinutes = m.defaultDuration
	}
	venue, err := m.venue.Venue(ctx)
	if err != nil {
		return 0, persistErr("load venue settings", err)
	}
	c := Candidate{Start: start, DurationMinutes: durationMinutes}
	free, expired, err := m.freeUnits(ctx, m.clock.Now(), c, venue.Capacity)
	pending = expired
	return free, err
}

// Sweep runs the expiry sweeper now and returns what it removed.
func (m *Manager) Sweep(ctx context.Context) ([]model.Reservation, error) {
	var pending []Event
	defer func() { m.publish(ctx, pending) }()
	m.mu.Lock()
	defer m.mu.Unlock()

	pending, err := m.sweep(ctx, m.clock.Now())
	if err != nil {
		return nil, err
	}
	removed := make([]model.Reservation, 0, len(pending))
	for _, ev := range pending {
		removed = append(removed, ev.Reservation)
	}
	return removed, nil
}

// freeUnits sweeps and then computes availability for c.  The expired
// events are returned even when the availability read fails.
func (m *Manager) freeUnits(ctx context.Context, now time.Time, c Candidate, capacity int) (int, []Event, error) {
	expired, err := m.sweep(ctx, now)
	if err != nil {
		return 0, expired, err
	}
	all, err := m.store.All(ctx)
	if err != nil {
		return 0, expired, persistErr("load reservations", err)
	}
	return AvailableUnits(all, c.Start, time.Duration(c.DurationMinutes)*time.Minute, capacity), expired, nil
}

func (m *Manager) sweep(ctx context.Context, now time.Time) ([]Event, error) {
	removed, err := m.sweeper.Sweep(ctx, now)
	if err != nil {
		return nil, err
	}
	if m.metrics != nil && len(removed) > 0 {
		m.metrics.SweptTotal.Add(float64(len(removed)))
	}
	events := make([]Event, 0, len(removed))
	for _, r := range removed {
		events = append(events, Event{Kind: EventExpired, Reservation: r})
	}
	return events, nil
}

func (m *Manager) insert(ctx context.Context, holderID string, c Candidate, now time.Time) (model.Reservation, error) {
	r := model.Reservation{
		ID:              uuid.NewString(),
		HolderID:        holderID,
		Start:           c.Start,
		DurationMinutes: c.DurationMinutes,
		Quantity:        c.Quantity,
		CreatedAt:       now,
	}
	if err := m.store.Append(ctx, r); err != nil {
		return model.Reservation{}, persistErr("save reservation", err)
	}
	if m.metrics != nil {
		m.metrics.UnitsBooked.Add(float64(r.Quantity))
	}
	return r, nil
}

// finish runs after the mutex is released: it records metrics and
// publishes the events collected during the operation.
func (m *Manager) finish(ctx context.Context, op string, began time.Time, pending []Event, out Outcome, err error) {
	if m.metrics != nil {
		m.metrics.OpLatencyMS.WithLabelValues(op).Observe(float64(time.Since(began).Milliseconds()))
		if err != nil {
			m.metrics.ErrorsTotal.WithLabelValues(op).Inc()
		} else {
			m.metrics.OutcomesTotal.WithLabelValues(op, string(out.Kind)).Inc()
		}
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		log.Printf("booking: %s: %s: %v", op, pe.Op, pe.Err)
	}
	m.publish(ctx, pending)
}

func (m *Manager) publish(ctx context.Context, events []Event) {
	if m.events == nil {
		return
	}
	for _, ev := range events {
		if err := m.events.Publish(ctx, ev); err != nil {
			log.Printf("booking: publish %s for reservation %s failed: %v", ev.Kind, ev.Reservation.ID, err)
		}
	}
}
