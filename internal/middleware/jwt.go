package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/hostel-buddy/internal/service"
)

// Authenticate returns an Echo middleware that resolves the Bearer token in
// the Authorization header through the guard and stores the resulting
// Identity in the request context.  Handlers read it with CurrentIdentity.
// Failures are returned as service errors so the central error handler
// renders them as 401 responses.
func Authenticate(guard *service.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			who, err := guard.Authenticate(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}
			SetIdentity(c, who)
			return next(c)
		}
	}
}
