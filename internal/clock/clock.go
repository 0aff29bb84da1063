// Package clock lets the booking engine and its callers agree on "now"
// without reaching for time.Now directly, so tests can pin the instant.
package clock

import "time"

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock and converts it into the venue's location.
type System struct {
	Loc *time.Location
}

func (s System) Now() time.Time {
	if s.Loc == nil {
		return time.Now()
	}
	return time.Now().In(s.Loc)
}

// Fixed always returns the same instant.  Set moves it.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time { return f.T }

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) { f.T = t }

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }
