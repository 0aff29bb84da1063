package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concept-booking/internal/booking"
	"github.com/iliyamo/concept-booking/internal/model"
)

// Engine is the part of booking.Manager the HTTP layer drives.
type Engine interface {
	RequestBooking(ctx context.Context, req booking.Request) (booking.Outcome, error)
	RespondToOffer(ctx context.Context, holderID string, accept bool) (booking.Outcome, error)
	Cancel(ctx context.Context, holderID string, start time.Time, durationMinutes int) (booking.Outcome, error)
	ListFor(ctx context.Context, holderID string) ([]model.Reservation, error)
	ListAll(ctx context.Context, day *time.Time) ([]booking.DaySchedule, error)
	Availability(ctx context.Context, start time.Time, durationMinutes int) (int, error)
}

// BookingHandler serves the holder-facing booking endpoints.
type BookingHandler struct {
	Engine Engine
	Venue  booking.VenueSource
	Loc    *time.Location
}

func NewBookingHandler(e Engine, v booking.VenueSource, loc *time.Location) *BookingHandler {
	if e == nil || v == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{Engine: e, Venue: v, Loc: loc}
}

type createBookingReq struct {
	Start           string `json:"start"`
	DurationMinutes int    `json:"duration_minutes"`
	Quantity        *int   `json:"quantity"`
}

type offerAnswerReq struct {
	Answer string `json:"answer"`
}

// Create: POST /v1/bookings.  A missing quantity means one concept, a
// missing duration the default duration.
func (h *BookingHandler) Create(c echo.Context) error {
	holder, err := holderID(c)
	if holder == "" {
		return err
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	start, err := parseStart(req.Start, h.Loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	out, err := h.Engine.RequestBooking(ctx, booking.Request{
		HolderID:        holder,
		Start:           start,
		DurationMinutes: req.DurationMinutes,
		Quantity:        qty,
	})
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(outcomeStatus(out), out)
}

// AnswerOffer: POST /v1/bookings/offer.  "yes" (any case) accepts, every
// other answer declines, an unreadable body included.
func (h *BookingHandler) AnswerOffer(c echo.Context) error {
	holder, err := holderID(c)
	if holder == "" {
		return err
	}
	var req offerAnswerReq
	accept := false
	if err := c.Bind(&req); err == nil {
		accept = strings.EqualFold(strings.TrimSpace(req.Answer), "yes")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	out, err := h.Engine.RespondToOffer(ctx, holder, accept)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(outcomeStatus(out), out)
}

// Cancel: DELETE /v1/bookings?start=&duration=
func (h *BookingHandler) Cancel(c echo.Context) error {
	holder, err := holderID(c)
	if holder == "" {
		return err
	}
	start, err := parseStart(c.QueryParam("start"), h.Loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	dur, ok := durationParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration must be a positive number of minutes"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	out, err := h.Engine.Cancel(ctx, holder, start, dur)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(outcomeStatus(out), out)
}

// Mine: GET /v1/my-bookings
func (h *BookingHandler) Mine(c echo.Context) error {
	holder, err := holderID(c)
	if holder == "" {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	rs, err := h.Engine.ListFor(ctx, holder)
	if err != nil {
		return engineError(c, err)
	}
	if rs == nil {
		rs = []model.Reservation{}
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": rs})
}

// Schedule: GET /v1/schedule?day=YYYY-MM-DD.  Without day every date is
// returned.
func (h *BookingHandler) Schedule(c echo.Context) error {
	var day *time.Time
	if s := c.QueryParam("day"); s != "" {
		d, err := time.ParseInLocation("2006-01-02", s, h.Loc)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "day must look like 2006-01-02"})
		}
		day = &d
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	days, err := h.Engine.ListAll(ctx, day)
	if err != nil {
		return engineError(c, err)
	}
	if days == nil {
		days = []booking.DaySchedule{}
	}
	return c.JSON(http.StatusOK, echo.Map{"days": days})
}

// Availability: GET /v1/availability?start=&duration=
func (h *BookingHandler) Availability(c echo.Context) error {
	start, err := parseStart(c.QueryParam("start"), h.Loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	dur, ok := durationParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration must be a positive number of minutes"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	free, err := h.Engine.Availability(ctx, start, dur)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"start":            start.Format(WireLayout),
		"duration_minutes": dur,
		"available":        free,
	})
}

type dayHoursResp struct {
	Weekday string `json:"weekday"`
	Closed  bool   `json:"closed"`
	Open    string `json:"open,omitempty"`
	Close   string `json:"close,omitempty"`
}

// Hours: GET /v1/hours.  Public; shows the weekly timetable and upcoming
// closed periods.
func (h *BookingHandler) Hours(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	v, err := h.Venue.Venue(ctx)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "settings unavailable"})
	}
	now := time.Now().In(h.Loc)
	upcoming := make([]model.ClosedPeriod, 0, len(v.Closures))
	for _, p := range v.Closures {
		if p.Until.After(now) {
			upcoming = append(upcoming, p)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"hours":    weeklyHoursResp(v.Hours),
		"closures": upcoming,
		"timezone": h.Loc.String(),
	})
}

// weeklyHoursResp lists the days Monday first, the way holders read a week.
func weeklyHoursResp(w model.WeeklyHours) []dayHoursResp {
	out := make([]dayHoursResp, 0, 7)
	for i := 1; i <= 7; i++ {
		d := time.Weekday(i % 7)
		dh := w[d]
		r := dayHoursResp{Weekday: d.String(), Closed: dh.Closed}
		if !dh.Closed {
			r.Open = model.FormatClock(dh.Open)
			r.Close = model.FormatClock(dh.Close)
		}
		out = append(out, r)
	}
	return out
}

// durationParam reads ?duration= in minutes.  Absent means 0, which the
// engine replaces with its default.
func durationParam(c echo.Context) (int, bool) {
	s := c.QueryParam("duration")
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
