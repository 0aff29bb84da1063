package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concept-booking/internal/handler"
	"github.com/iliyamo/concept-booking/internal/middleware"
	"github.com/iliyamo/concept-booking/internal/model"
)

// RegisterAdmin registers the venue settings endpoints under /v1/admin.
// Only tokens carrying the ADMIN role get through.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/settings", h.Settings)
	g.PUT("/capacity", h.SetCapacity)
	g.PUT("/hours/:weekday", h.SetDayHours)
	g.POST("/closures", h.AddClosure)
	g.DELETE("/closures/:id", h.RemoveClosure)
	g.PUT("/password", h.SetPassword)
}
