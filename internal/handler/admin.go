package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concept-booking/internal/model"
	"github.com/iliyamo/concept-booking/internal/repository"
	"github.com/iliyamo/concept-booking/internal/utils"
)

// SettingsStore is the administrator-controlled venue configuration.
type SettingsStore interface {
	Venue(ctx context.Context) (model.Venue, error)
	SetCapacity(ctx context.Context, n int) error
	SetDayHours(ctx context.Context, day time.Weekday, h model.DayHours) error
	AddClosure(ctx context.Context, p model.ClosedPeriod) (model.ClosedPeriod, error)
	RemoveClosure(ctx context.Context, id uint64) error
	PasswordHash(ctx context.Context) (string, error)
	SetPasswordHash(ctx context.Context, hash string) error
}

// AdminHandler serves the settings endpoints reserved to the ADMIN role.
// Every change applies to the next booking request; nothing is cached.
type AdminHandler struct {
	Store      SettingsStore
	Loc        *time.Location
	BcryptCost int
}

func NewAdminHandler(s SettingsStore, loc *time.Location, bcryptCost int) *AdminHandler {
	if s == nil {
		panic("nil settings store passed to NewAdminHandler")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AdminHandler{Store: s, Loc: loc, BcryptCost: bcryptCost}
}

type capacityReq struct {
	Capacity int `json:"capacity"`
}

type dayHoursReq struct {
	Closed bool   `json:"closed"`
	Open   string `json:"open"`
	Close  string `json:"close"`
}

type closureReq struct {
	From   string `json:"from"`
	Until  string `json:"until"`
	Reason string `json:"reason"`
}

type passwordReq struct {
	Password string `json:"password"`
}

// Settings: GET /v1/admin/settings
func (h *AdminHandler) Settings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	v, err := h.Store.Venue(ctx)
	if err != nil {
		return settingsError(c, err)
	}
	hash, err := h.Store.PasswordHash(ctx)
	if err != nil {
		return settingsError(c, err)
	}
	closures := v.Closures
	if closures == nil {
		closures = []model.ClosedPeriod{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"capacity":     v.Capacity,
		"hours":        weeklyHoursResp(v.Hours),
		"closures":     closures,
		"password_set": hash != "",
		"timezone":     h.Loc.String(),
	})
}

// SetCapacity: PUT /v1/admin/capacity
func (h *AdminHandler) SetCapacity(c echo.Context) error {
	var req capacityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.Store.SetCapacity(ctx, req.Capacity); err != nil {
		return settingsError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"capacity": req.Capacity})
}

// SetDayHours: PUT /v1/admin/hours/:weekday where weekday is 0-6 (Sunday
// first) or an English day name.
func (h *AdminHandler) SetDayHours(c echo.Context) error {
	day, ok := parseWeekday(c.Param("weekday"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown weekday"})
	}
	var req dayHoursReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	dh := model.DayHours{Closed: req.Closed}
	if !req.Closed {
		open, err := model.ParseClock(req.Open)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "open must look like 07:00"})
		}
		// "24:00" is how people write "until midnight".
		closeAt := 24 * 60
		if req.Close != "24:00" {
			if closeAt, err = model.ParseClock(req.Close); err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "close must look like 22:00"})
			}
		}
		dh.Open, dh.Close = open, closeAt
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.Store.SetDayHours(ctx, day, dh); err != nil {
		return settingsError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"weekday": day.String(), "hours": dh})
}

// AddClosure: POST /v1/admin/closures
func (h *AdminHandler) AddClosure(c echo.Context) error {
	var req closureReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	from, err := parseStart(req.From, h.Loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from: " + err.Error()})
	}
	until, err := parseStart(req.Until, h.Loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "until: " + err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	p, err := h.Store.AddClosure(ctx, model.ClosedPeriod{From: from, Until: until, Reason: strings.TrimSpace(req.Reason)})
	if err != nil {
		return settingsError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// RemoveClosure: DELETE /v1/admin/closures/:id
func (h *AdminHandler) RemoveClosure(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.Store.RemoveClosure(ctx, id); err != nil {
		return settingsError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetPassword: PUT /v1/admin/password.  Already issued tokens stay valid;
// only new verifications need the new password.
func (h *AdminHandler) SetPassword(c echo.Context) error {
	var req passwordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if errors.Is(err, utils.ErrEmptyPassword) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.Store.SetPasswordHash(ctx, hash); err != nil {
		return settingsError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func settingsError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrInvalidSetting):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	log.Printf("admin: %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "settings unavailable"})
}

func parseWeekday(s string) (time.Weekday, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, false
		}
		return time.Weekday(n), true
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return d, true
		}
	}
	return 0, false
}
