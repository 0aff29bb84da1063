package booking

import (
	"sort"
	"time"

	"github.com/iliyamo/concept-booking/internal/model"
)

type delta struct {
	at  time.Time
	qty int
}

// PeakOccupancy returns the largest number of units held at any single
// instant of [start, start+duration).  Reservations may start and end at
// any minute, so the window is scanned with a sweep line rather than per
// clock hour.
//
// A reservation ending exactly at start has already released its units
// and one starting exactly at the window end has not taken them yet.  All
// changes that happen at the same instant are applied together before the
// running maximum is updated, so a release and an acquisition at the same
// minute never add up to a phantom peak.
func PeakOccupancy(reservations []model.Reservation, start time.Time, duration time.Duration) int {
	end := start.Add(duration)

	baseline := 0
	var events []delta
	for _, r := range reservations {
		if !r.Overlaps(start, end) {
			continue
		}
		if r.Covers(start) {
			baseline += r.Quantity
		}
		if rs := r.Start; rs.After(start) && rs.Before(end) {
			events = append(events, delta{at: rs, qty: r.Quantity})
		}
		if re := r.End(); re.After(start) && re.Before(end) {
			events = append(events, delta{at: re, qty: -r.Quantity})
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].at.Before(events[j].at) })

	peak, cur := baseline, baseline
	for i := 0; i < len(events); {
		at := events[i].at
		for i < len(events) && events[i].at.Equal(at) {
			cur += events[i].qty
			i++
		}
		if cur > peak {
			peak = cur
		}
	}
	return peak
}

// AvailableUnits returns how many of capacity units are free for the whole
// window [start, start+duration).  The result is within [0, capacity].
func AvailableUnits(reservations []model.Reservation, start time.Time, duration time.Duration, capacity int) int {
	if capacity <= 0 {
		return 0
	}
	free := capacity - PeakOccupancy(reservations, start, duration)
	if free < 0 {
		return 0
	}
	return free
}
