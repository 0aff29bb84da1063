package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/concept-booking/internal/handler"    // handlers that drive the booking engine
	"github.com/iliyamo/concept-booking/internal/middleware" // JWT authentication and role enforcement
	"github.com/iliyamo/concept-booking/internal/model"
)

// RegisterRoutes registers routes that need no authentication: the health
// check, the Prometheus scrape endpoint and the public opening hours.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc, metrics http.Handler, b *handler.BookingHandler) {
	e.GET("/healthz", health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
	e.GET("/v1/hours", b.Hours)
}

// RegisterAuth registers verification under /v1/auth and the holder's
// profile endpoints under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	e.POST("/v1/auth/verify", a.Verify)

	me := e.Group("/v1/me",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleHolder, model.RoleAdmin),
	)
	me.GET("", a.Me)
	me.PUT("/name", a.Rename)
}
