package model

import (
	"fmt"
	"time"
)

// DefaultCapacity is the number of concepts the venue offers when no
// administrator has changed it.
const DefaultCapacity = 6

// DayHours describes when bookings are accepted on one weekday.  Open and
// Close are minutes after midnight; when Closed is set the venue does not
// accept bookings that day at all.
type DayHours struct {
	Closed bool `json:"closed"`
	Open   int  `json:"open"`
	Close  int  `json:"close"`
}

// WeeklyHours is indexed by time.Weekday (Sunday = 0).
type WeeklyHours [7]DayHours

// ClosedPeriod is a half-open range [From, Until) during which the venue
// does not accept any booking, e.g. holidays or maintenance.
type ClosedPeriod struct {
	ID     uint64    `json:"id"`
	From   time.Time `json:"from"`
	Until  time.Time `json:"until"`
	Reason string    `json:"reason,omitempty"`
}

// Intersects reports whether [start, end) shares any instant with the period.
func (p ClosedPeriod) Intersects(start, end time.Time) bool {
	return p.From.Before(end) && p.Until.After(start)
}

// Venue is the administrator-controlled configuration the booking policy
// reads on every validation.
type Venue struct {
	Hours    WeeklyHours    `json:"hours"`
	Closures []ClosedPeriod `json:"closures"`
	Capacity int            `json:"capacity"`
}

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes after midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// MinuteOfDay returns how many minutes after local midnight t falls.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// SameDay reports whether a and b fall on the same calendar date in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DefaultHours mirrors the venue's usual timetable: weekdays 07:00–22:00,
// Saturday 09:00–21:00 and closed on Sunday.
func DefaultHours() WeeklyHours {
	var w WeeklyHours
	for d := time.Monday; d <= time.Friday; d++ {
		w[d] = DayHours{Open: 7 * 60, Close: 22 * 60}
	}
	w[time.Saturday] = DayHours{Open: 9 * 60, Close: 21 * 60}
	w[time.Sunday] = DayHours{Closed: true}
	return w
}
