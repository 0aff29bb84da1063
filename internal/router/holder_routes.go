package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concept-booking/internal/handler"
	"github.com/iliyamo/concept-booking/internal/middleware"
	"github.com/iliyamo/concept-booking/internal/model"
)

// RegisterHolder registers the booking endpoints under /v1.  Every route
// requires a verified holder (administrators are holders too).  limit
// runs after authentication so buckets are keyed by holder rather than
// by address.
func RegisterHolder(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleHolder, model.RoleAdmin),
	)
	if limit != nil {
		g.Use(limit)
	}
	g.GET("/availability", h.Availability)
	g.POST("/bookings", h.Create)
	g.POST("/bookings/offer", h.AnswerOffer)
	g.DELETE("/bookings", h.Cancel)
	g.GET("/my-bookings", h.Mine)
	g.GET("/schedule", h.Schedule)
}
