package middleware

// identity.go defines helpers shared across middleware and handlers for the
// authenticated caller stored in the Echo context by Authenticate.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-buddy/internal/service"
)

const identityKey = "identity"

// SetIdentity stores who in the request context.
func SetIdentity(c echo.Context, who service.Identity) { c.Set(identityKey, who) }

// CurrentIdentity returns the caller resolved by Authenticate.  The zero
// Identity is returned on routes without authentication.
func CurrentIdentity(c echo.Context) service.Identity {
	who, _ := c.Get(identityKey).(service.Identity)
	return who
}

// userID returns the caller's id for rate-limit keys, or "anon".
func userID(c echo.Context) string {
	if who := CurrentIdentity(c); !who.IsZero() {
		return who.UserID
	}
	return "anon"
}
