package booking

import (
	"fmt"
	"time"

	"github.com/iliyamo/concept-booking/internal/model"
)

// Candidate is a window the holder would like to occupy.
type Candidate struct {
	Start           time.Time
	DurationMinutes int
	Quantity        int
}

// End returns the end of the candidate window.
func (c Candidate) End() time.Time {
	return c.Start.Add(time.Duration(c.DurationMinutes) * time.Minute)
}

const displayLayout = "02.01.2006 15:04"

// Validate checks a candidate against business rules and the venue's
// calendar.  It returns nil or a *ValidationError; the first failing check
// wins, in this order: quantity, duration, past start, closed periods,
// weekday opening hours.  Windows may end at midnight but not run past it.
// Calendar checks read the start in now's location, the venue time zone,
// whatever location the caller expressed it in.
func Validate(c Candidate, now time.Time, venue model.Venue) error {
	c.Start = c.Start.In(now.Location())
	if c.Quantity < 1 {
		return &ValidationError{Reason: "must request a positive count of concepts"}
	}
	if c.DurationMinutes < 1 {
		return &ValidationError{Reason: "duration must be a positive number of minutes"}
	}
	if !c.Start.After(now) {
		return &ValidationError{Reason: "cannot book the past, please pick a later time"}
	}

	end := c.End()
	for _, p := range venue.Closures {
		if p.Intersects(c.Start, end) {
			return &ValidationError{Reason: fmt.Sprintf("the venue is closed from %s until %s",
				p.From.In(c.Start.Location()).Format(displayLayout),
				p.Until.In(c.Start.Location()).Format(displayLayout))}
		}
	}

	weekday := c.Start.Weekday()
	day := venue.Hours[weekday]
	if day.Closed {
		return &ValidationError{Reason: fmt.Sprintf("the venue is closed on %s", weekday)}
	}
	if !fitsDay(c.Start, end) ||
		model.MinuteOfDay(c.Start) < day.Open ||
		endMinute(c.Start, end) > day.Close {
		return &ValidationError{Reason: fmt.Sprintf("on %s bookings must fit between %s and %s",
			weekday, model.FormatClock(day.Open), model.FormatClock(day.Close))}
	}
	return nil
}

// fitsDay reports whether [start, end) stays on start's calendar date.
// Ending exactly at the following midnight still counts.
func fitsDay(start, end time.Time) bool {
	return model.SameDay(start, end.Add(-time.Minute))
}

// endMinute is end as minutes after start's midnight, so a window ending
// at the following midnight reads 24:00 rather than 00:00.
func endMinute(start, end time.Time) int {
	if !model.SameDay(start, end) {
		return 24 * 60
	}
	return model.MinuteOfDay(end)
}
