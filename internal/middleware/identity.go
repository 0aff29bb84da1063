package middleware

// identity.go holds the helper that reads the authenticated holder back
// out of the Echo context.  JWTAuth stores the holder id as a string;
// unauthenticated requests have none.

import (
	"github.com/labstack/echo/v4"
)

// HolderID returns the authenticated holder's id, or "" when the request
// did not pass through JWTAuth.
func HolderID(c echo.Context) string {
	if v, ok := c.Get(CtxHolderID).(string); ok {
		return v
	}
	return ""
}

// rateIdentity is the identity used in rate limit keys: the holder id,
// or "anon" before verification.
func rateIdentity(c echo.Context) string {
	if id := HolderID(c); id != "" {
		return id
	}
	return "anon"
}
