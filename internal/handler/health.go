package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http" // net/http provides status codes and response helpers
	"time"

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Pinger is anything whose reachability the health check reports, such
// as the *sql.DB behind the MySQL stores.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function, e.g. a Redis PING, to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Health is the liveness endpoint used by load balancers and monitoring.
// It returns a plain text "ok" with 200 when every dependency answers
// and 503 naming the first one that does not.
func Health(deps map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		for name, p := range deps {
			if p == nil {
				continue
			}
			if err := p.PingContext(ctx); err != nil {
				return c.String(http.StatusServiceUnavailable, name+" unavailable")
			}
		}
		return c.String(http.StatusOK, "ok")
	}
}
