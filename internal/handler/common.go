package handler // handler defines the HTTP adapter in front of the booking engine

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concept-booking/internal/booking"
	"github.com/iliyamo/concept-booking/internal/middleware"
)

// WireLayout is the wall-clock format for start times in requests and
// query strings, read in the venue time zone.
const WireLayout = "2006-01-02T15:04"

// requestTimeout bounds every store round trip made on behalf of a request.
const requestTimeout = 5 * time.Second

// parseStart reads a start time either as WireLayout in loc or as RFC3339.
// Seconds are dropped: the engine works in whole minutes.
func parseStart(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("start is required")
	}
	if t, err := time.ParseInLocation(WireLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("start must look like %s", WireLayout)
	}
	return t.In(loc).Truncate(time.Minute), nil
}

// outcomeStatus maps an engine outcome onto an HTTP status.  Partial
// offers are a normal answer (200); a full rejection for capacity is a
// conflict, any other rejection a failed business rule.
func outcomeStatus(out booking.Outcome) int {
	switch out.Kind {
	case booking.Confirmed:
		return http.StatusCreated
	case booking.PartialOffer, booking.Cancelled, booking.Removed:
		return http.StatusOK
	case booking.NoPendingOffer, booking.NotFound:
		return http.StatusNotFound
	case booking.Rejected:
		var ce *booking.CapacityError
		if errors.As(out.Err, &ce) {
			return http.StatusConflict
		}
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

// engineError answers a request whose engine call failed outright.
// Storage failures get the generic retry message and 503.
func engineError(c echo.Context, err error) error {
	if booking.IsPersistence(err) {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
	}
	log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// holderID returns the authenticated holder or answers 401.
func holderID(c echo.Context) (string, error) {
	id := middleware.HolderID(c)
	if id == "" {
		return "", c.JSON(http.StatusUnauthorized, echo.Map{"error": "not verified"})
	}
	return id, nil
}
