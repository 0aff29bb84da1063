package booking

import (
	"context"
	"errors"
	"sync"

	"github.com/iliyamo/concept-booking/internal/model"
)

var errDiskFull = errors.New("disk full")

type fakeStore struct {
	mu          sync.Mutex
	rs          []model.Reservation
	writes      int
	failAppend  bool
	failReplace bool
}

func newFakeStore(rs ...model.Reservation) *fakeStore {
	return &fakeStore{rs: append([]model.Reservation(nil), rs...)}
}

func (s *fakeStore) Append(_ context.Context, r model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppend {
		return errDiskFull
	}
	s.writes++
	s.rs = append(s.rs, r)
	return nil
}

func (s *fakeStore) ReplaceAll(_ context.Context, rs []model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReplace {
		return errDiskFull
	}
	s.writes++
	s.rs = append([]model.Reservation(nil), rs...)
	return nil
}

func (s *fakeStore) All(_ context.Context) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Reservation(nil), s.rs...), nil
}

func (s *fakeStore) snapshot() []model.Reservation {
	rs, _ := s.All(context.Background())
	return rs
}

type fakeNegotiations struct {
	mu sync.Mutex
	m  map[string]model.Negotiation
}

func newFakeNegotiations() *fakeNegotiations {
	return &fakeNegotiations{m: make(map[string]model.Negotiation)}
}

func (n *fakeNegotiations) Get(_ context.Context, holder string) (model.Negotiation, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.m[holder]
	return v, ok, nil
}

func (n *fakeNegotiations) Put(_ context.Context, v model.Negotiation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.m[v.HolderID] = v
	return nil
}

func (n *fakeNegotiations) Delete(_ context.Context, holder string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.m, holder)
	return nil
}

type fakeVenue struct {
	mu sync.Mutex
	v  model.Venue
}

func newFakeVenue(capacity int) *fakeVenue {
	return &fakeVenue{v: model.Venue{Hours: model.DefaultHours(), Capacity: capacity}}
}

func (f *fakeVenue) Venue(context.Context) (model.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.v, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}
