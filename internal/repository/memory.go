package repository

// In-process implementations of the stores.  They back STORE_DRIVER=memory
// (a single bot process without a database) and the package tests.  Each
// one guards its state with its own mutex and hands out copies so callers
// can never alias the stored slices.

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/concept-booking/internal/model"
)

// MemoryReservations keeps reservation records in insertion order.
type MemoryReservations struct {
	mu sync.Mutex
	rs []model.Reservation
}

// NewMemoryReservations returns a store seeded with the given records.
func NewMemoryReservations(seed ...model.Reservation) *MemoryReservations {
	return &MemoryReservations{rs: append([]model.Reservation(nil), seed...)}
}

func (m *MemoryReservations) Append(_ context.Context, r model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rs = append(m.rs, r)
	return nil
}

func (m *MemoryReservations) ReplaceAll(_ context.Context, rs []model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rs = append([]model.Reservation(nil), rs...)
	return nil
}

func (m *MemoryReservations) All(_ context.Context) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Reservation(nil), m.rs...), nil
}

// MemoryNegotiations keeps one pending offer per holder.  An offer counts
// as absent once TTL has passed since it was stored, measured on Now like
// a Redis key expiry, so the engine's clock never enters into it.  A zero
// TTL keeps offers forever.
type MemoryNegotiations struct {
	mu     sync.Mutex
	m      map[string]model.Negotiation
	stored map[string]time.Time
	TTL    time.Duration
	Now    func() time.Time
}

// NewMemoryNegotiations returns an empty store.
func NewMemoryNegotiations(ttl time.Duration) *MemoryNegotiations {
	return &MemoryNegotiations{
		m:      make(map[string]model.Negotiation),
		stored: make(map[string]time.Time),
		TTL:    ttl,
		Now:    time.Now,
	}
}

func (s *MemoryNegotiations) Get(_ context.Context, holderID string) (model.Negotiation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.m[holderID]
	if ok && s.TTL > 0 && s.Now().Sub(s.stored[holderID]) >= s.TTL {
		delete(s.m, holderID)
		delete(s.stored, holderID)
		return model.Negotiation{}, false, nil
	}
	return n, ok, nil
}

func (s *MemoryNegotiations) Put(_ context.Context, n model.Negotiation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[n.HolderID] = n
	s.stored[n.HolderID] = s.Now()
	return nil
}

func (s *MemoryNegotiations) Delete(_ context.Context, holderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, holderID)
	delete(s.stored, holderID)
	return nil
}

// MemorySettings holds the venue configuration and the verification
// password hash.
type MemorySettings struct {
	mu           sync.Mutex
	venue        model.Venue
	nextClosure  uint64
	passwordHash string
}

// NewMemorySettings starts from the default timetable and the given capacity.
func NewMemorySettings(capacity int) *MemorySettings {
	if capacity <= 0 {
		capacity = model.DefaultCapacity
	}
	return &MemorySettings{venue: model.Venue{Hours: model.DefaultHours(), Capacity: capacity}}
}

func (s *MemorySettings) Venue(_ context.Context) (model.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.venue
	v.Closures = append([]model.ClosedPeriod(nil), s.venue.Closures...)
	return v, nil
}

func (s *MemorySettings) SetCapacity(_ context.Context, n int) error {
	if n < 1 {
		return fmt.Errorf("%w: capacity must be at least 1", ErrInvalidSetting)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.venue.Capacity = n
	return nil
}

func (s *MemorySettings) SetDayHours(_ context.Context, day time.Weekday, h model.DayHours) error {
	if err := checkDayHours(day, h); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.venue.Hours[day] = h
	return nil
}

func (s *MemorySettings) AddClosure(_ context.Context, p model.ClosedPeriod) (model.ClosedPeriod, error) {
	if !p.Until.After(p.From) {
		return model.ClosedPeriod{}, fmt.Errorf("%w: closure must end after it starts", ErrInvalidSetting)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextClosure++
	p.ID = s.nextClosure
	s.venue.Closures = append(s.venue.Closures, p)
	sort.SliceStable(s.venue.Closures, func(i, j int) bool { return s.venue.Closures[i].From.Before(s.venue.Closures[j].From) })
	return p, nil
}

func (s *MemorySettings) RemoveClosure(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.venue.Closures {
		if p.ID == id {
			s.venue.Closures = append(s.venue.Closures[:i], s.venue.Closures[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemorySettings) PasswordHash(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passwordHash, nil
}

func (s *MemorySettings) SetPasswordHash(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwordHash = hash
	return nil
}

// MemoryHolders keeps verified holders by id.
type MemoryHolders struct {
	mu sync.Mutex
	m  map[string]model.Holder
}

// NewMemoryHolders returns an empty store.
func NewMemoryHolders() *MemoryHolders {
	return &MemoryHolders{m: make(map[string]model.Holder)}
}

func (s *MemoryHolders) Upsert(_ context.Context, h model.Holder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if prev, ok := s.m[h.ID]; ok {
		h.CreatedAt = prev.CreatedAt
	} else {
		h.CreatedAt = now
	}
	h.UpdatedAt = now
	s.m[h.ID] = h
	return nil
}

func (s *MemoryHolders) GetByID(_ context.Context, id string) (model.Holder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.m[id]
	if !ok {
		return model.Holder{}, ErrNotFound
	}
	return h, nil
}

func (s *MemoryHolders) Rename(_ context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.m[id]
	if !ok {
		return ErrNotFound
	}
	h.Name = name
	h.UpdatedAt = time.Now().UTC()
	s.m[id] = h
	return nil
}

func checkDayHours(day time.Weekday, h model.DayHours) error {
	if day < time.Sunday || day > time.Saturday {
		return fmt.Errorf("%w: unknown weekday %d", ErrInvalidSetting, day)
	}
	if h.Closed {
		return nil
	}
	if h.Open < 0 || h.Close > 24*60 || h.Close <= h.Open {
		return fmt.Errorf("%w: %s must close after it opens", ErrInvalidSetting, day)
	}
	return nil
}
