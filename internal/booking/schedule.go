package booking

import (
	"sort"
	"time"

	"github.com/iliyamo/concept-booking/internal/model"
)

// HolderShare is what one holder occupies at a given start time.
type HolderShare struct {
	HolderID     string              `json:"holder_id"`
	Quantity     int                 `json:"quantity"`
	Reservations []model.Reservation `json:"reservations"`
}

// Slot groups the reservations starting at the same instant.
type Slot struct {
	Start   time.Time     `json:"start"`
	Total   int           `json:"total"`
	Holders []HolderShare `json:"holders"`
}

// DaySchedule groups the slots of one calendar date (venue time zone).
type DaySchedule struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

const dateLayout = "2006-01-02"

// GroupSchedule orders reservations by date, start time and holder and
// folds them into days and slots.  When day is non-nil, reservations on
// other dates are skipped.
func GroupSchedule(reservations []model.Reservation, day *time.Time) []DaySchedule {
	rs := make([]model.Reservation, 0, len(reservations))
	for _, r := range reservations {
		if day != nil && !model.SameDay(r.Start, *day) {
			continue
		}
		rs = append(rs, r)
	}
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].Start.Equal(rs[j].Start) {
			return rs[i].Start.Before(rs[j].Start)
		}
		return rs[i].HolderID < rs[j].HolderID
	})

	var days []DaySchedule
	for _, r := range rs {
		date := r.Start.Format(dateLayout)
		if len(days) == 0 || days[len(days)-1].Date != date {
			days = append(days, DaySchedule{Date: date})
		}
		d := &days[len(days)-1]
		if len(d.Slots) == 0 || !d.Slots[len(d.Slots)-1].Start.Equal(r.Start) {
			d.Slots = append(d.Slots, Slot{Start: r.Start})
		}
		s := &d.Slots[len(d.Slots)-1]
		s.Total += r.Quantity
		if len(s.Holders) == 0 || s.Holders[len(s.Holders)-1].HolderID != r.HolderID {
			s.Holders = append(s.Holders, HolderShare{HolderID: r.HolderID})
		}
		h := &s.Holders[len(s.Holders)-1]
		h.Quantity += r.Quantity
		h.Reservations = append(h.Reservations, r)
	}
	return days
}
