package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concept-booking/internal/booking"
	"github.com/iliyamo/concept-booking/internal/middleware"
	"github.com/iliyamo/concept-booking/internal/model"
	"github.com/iliyamo/concept-booking/internal/repository"
)

// stubEngine answers every call with the configured outcome or error and
// records the last booking request.
type stubEngine struct {
	out      booking.Outcome
	err      error
	last     booking.Request
	accepted *bool
}

func (s *stubEngine) RequestBooking(_ context.Context, req booking.Request) (booking.Outcome, error) {
	s.last = req
	return s.out, s.err
}

func (s *stubEngine) RespondToOffer(_ context.Context, _ string, accept bool) (booking.Outcome, error) {
	s.accepted = &accept
	return s.out, s.err
}

func (s *stubEngine) Cancel(context.Context, string, time.Time, int) (booking.Outcome, error) {
	return s.out, s.err
}

func (s *stubEngine) ListFor(context.Context, string) ([]model.Reservation, error) { return nil, s.err }

func (s *stubEngine) ListAll(context.Context, *time.Time) ([]booking.DaySchedule, error) {
	return nil, s.err
}

func (s *stubEngine) Availability(context.Context, time.Time, int) (int, error) { return 0, s.err }

func TestOutcomeStatus(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		out  booking.Outcome
		want int
	}{
		{"confirmed", booking.Outcome{Kind: booking.Confirmed}, http.StatusCreated},
		{"offer", booking.Outcome{Kind: booking.PartialOffer}, http.StatusOK},
		{"cancelled", booking.Outcome{Kind: booking.Cancelled}, http.StatusOK},
		{"removed", booking.Outcome{Kind: booking.Removed}, http.StatusOK},
		{"no offer", booking.Outcome{Kind: booking.NoPendingOffer}, http.StatusNotFound},
		{"not found", booking.Outcome{Kind: booking.NotFound}, http.StatusNotFound},
		{"full", booking.Outcome{Kind: booking.Rejected, Err: &booking.CapacityError{Requested: 2}}, http.StatusConflict},
		{"rule", booking.Outcome{Kind: booking.Rejected, Err: &booking.ValidationError{Reason: "closed"}}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := outcomeStatus(tc.out); got != tc.want {
				t.Fatalf("got %d want %d", got, tc.want)
			}
		})
	}
}

func TestParseStart(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("MSK", 3*60*60)
	cases := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2025-03-04T19:00", want: time.Date(2025, 3, 4, 19, 0, 0, 0, loc)},
		{in: "2025-03-04T16:00:45Z", want: time.Date(2025, 3, 4, 19, 0, 0, 0, loc)},
		{in: " ", wantErr: true},
		{in: "04.03.2025 19:00", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseStart(tc.in, loc)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil || !got.Equal(tc.want) {
			t.Errorf("%q: got %v (%v) want %v", tc.in, got, err, tc.want)
		}
	}
}

func serve(h echo.HandlerFunc, method, target, body, holder string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if holder != "" {
		c.Set(middleware.CtxHolderID, holder)
	}
	_ = h(c)
	return rec
}

func TestCreateDefaultsAndErrors(t *testing.T) {
	eng := &stubEngine{out: booking.Outcome{Kind: booking.Confirmed}}
	h := NewBookingHandler(eng, repository.NewMemorySettings(0), time.UTC)

	rec := serve(h.Create, http.MethodPost, "/v1/bookings", `{"start":"2025-03-04T19:00"}`, "42")
	if rec.Code != http.StatusCreated {
		t.Fatalf("got %d", rec.Code)
	}
	if eng.last.Quantity != 1 || eng.last.HolderID != "42" || eng.last.DurationMinutes != 0 {
		t.Fatalf("unexpected request %+v", eng.last)
	}

	rec = serve(h.Create, http.MethodPost, "/v1/bookings", `{"start":"2025-03-04T19:00","quantity":0}`, "42")
	if rec.Code != http.StatusCreated || eng.last.Quantity != 0 {
		t.Fatalf("explicit zero must reach the engine, got %d %+v", rec.Code, eng.last)
	}

	if rec = serve(h.Create, http.MethodPost, "/v1/bookings", `{"start":"2025-03-04T19:00"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing holder: %d", rec.Code)
	}

	eng.err = &booking.PersistenceError{Op: "append", Err: errors.New("disk full")}
	rec = serve(h.Create, http.MethodPost, "/v1/bookings", `{"start":"2025-03-04T19:00"}`, "42")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "try again") {
		t.Fatalf("persistence failure: %d %s", rec.Code, rec.Body)
	}

	eng.err = errors.New("boom")
	if rec = serve(h.Mine, http.MethodGet, "/v1/my-bookings", "", "42"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected failure: %d", rec.Code)
	}
}

func TestAnswerOfferDeclinesUnreadableBody(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{"yes", `{"answer":" YES "}`, true},
		{"no", `{"answer":"no"}`, false},
		{"other text", `{"answer":"maybe later"}`, false},
		{"malformed json", `{"answer":`, false},
		{"wrong type", `{"answer":1}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng := &stubEngine{out: booking.Outcome{Kind: booking.Cancelled}}
			h := NewBookingHandler(eng, repository.NewMemorySettings(0), time.UTC)
			rec := serve(h.AnswerOffer, http.MethodPost, "/v1/bookings/offer", tc.body, "42")
			if eng.accepted == nil {
				t.Fatalf("engine not called, got %d %s", rec.Code, rec.Body)
			}
			if *eng.accepted != tc.want {
				t.Fatalf("accept=%v want %v", *eng.accepted, tc.want)
			}
		})
	}
}

func TestHoursSkipsPastClosures(t *testing.T) {
	settings := repository.NewMemorySettings(0)
	ctx := context.Background()
	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(48 * time.Hour)
	_, _ = settings.AddClosure(ctx, model.ClosedPeriod{From: past, Until: past.Add(time.Hour)})
	_, _ = settings.AddClosure(ctx, model.ClosedPeriod{From: future, Until: future.Add(time.Hour), Reason: "inventory"})

	h := NewBookingHandler(&stubEngine{}, settings, time.UTC)
	rec := serve(h.Hours, http.MethodGet, "/v1/hours", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "inventory") || strings.Count(body, `"from"`) != 1 {
		t.Fatalf("expected only the upcoming closure: %s", body)
	}
}

func TestParseWeekday(t *testing.T) {
	t.Parallel()
	cases := map[string]time.Weekday{"0": time.Sunday, "6": time.Saturday, "monday": time.Monday, "Fri": time.Friday}
	for in, want := range cases {
		if got, ok := parseWeekday(in); !ok || got != want {
			t.Errorf("%q: got %v ok=%v", in, got, ok)
		}
	}
	for _, in := range []string{"7", "-1", "someday", ""} {
		if _, ok := parseWeekday(in); ok {
			t.Errorf("%q must be rejected", in)
		}
	}
}
