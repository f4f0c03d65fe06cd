package middleware // middleware provides shared request processing for handlers

import (
	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/hostel-buddy/internal/model"
	"github.com/iliyamo/hostel-buddy/internal/service"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  It must be mounted
// after Authenticate.  A caller with another role gets 403 Forbidden; a
// request that reached it without an identity gets 401.
func RequireRole(guard *service.Guard, roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := guard.Authorize(CurrentIdentity(c), roles...); err != nil {
				return err
			}
			return next(c)
		}
	}
}
