package middleware

// identity.go provides the userID helper shared by the cache and rate
// limit middleware when building per-user keys.  When no user is
// authenticated, "guest" is returned so unauthenticated traffic shares
// one bucket.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// userID extracts the authenticated user identifier placed in the
// context by JWTAuth.  It returns "guest" when the request carries no
// identity.
func userID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "guest"
	}
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		return fmt.Sprintf("%.0f", t)
	case uint64:
		return fmt.Sprintf("%d", t)
	}
	return "guest"
}
