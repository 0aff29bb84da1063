package booking

import (
	"testing"

	"github.com/iliyamo/concept-booking/internal/model"
)

func TestGroupSchedule(t *testing.T) {
	t.Parallel()

	tomorrow := at(10, 0).AddDate(0, 0, 1)
	rs := []model.Reservation{
		res("bob", at(12, 0), 60, 1),
		res("alice", at(10, 0), 60, 2),
		res("bob", at(10, 0), 30, 1),
		res("alice", tomorrow, 60, 3),
		res("alice", at(10, 0), 90, 1),
	}

	days := GroupSchedule(rs, nil)
	if len(days) != 2 || days[0].Date != "2025-03-04" || days[1].Date != "2025-03-05" {
		t.Fatalf("unexpected days %+v", days)
	}
	first := days[0]
	if len(first.Slots) != 2 {
		t.Fatalf("expected 2 slots on the first day, got %d", len(first.Slots))
	}
	ten := first.Slots[0]
	if !ten.Start.Equal(at(10, 0)) || ten.Total != 4 {
		t.Fatalf("expected 10:00 slot with 4 units, got %s/%d", ten.Start.Format("15:04"), ten.Total)
	}
	if len(ten.Holders) != 2 || ten.Holders[0].HolderID != "alice" || ten.Holders[0].Quantity != 3 || len(ten.Holders[0].Reservations) != 2 {
		t.Fatalf("expected alice first with 3 units in 2 records, got %+v", ten.Holders)
	}

	only := GroupSchedule(rs, &tomorrow)
	if len(only) != 1 || only[0].Date != "2025-03-05" || only[0].Slots[0].Total != 3 {
		t.Fatalf("day filter failed: %+v", only)
	}

	if got := GroupSchedule(nil, nil); len(got) != 0 {
		t.Fatalf("expected no days, got %+v", got)
	}
}
