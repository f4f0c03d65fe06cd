package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-buddy/internal/handler"
	"github.com/iliyamo/hostel-buddy/internal/middleware"
	"github.com/iliyamo/hostel-buddy/internal/model"
	"github.com/iliyamo/hostel-buddy/internal/service"
)

// RegisterWarden registers warden-scoped endpoints under /api/v1/wardens.
// All routes require a valid token and the warden role.  Wardens see every
// complaint and drive its status.
func RegisterWarden(e *echo.Echo, h *handler.ComplaintHandler, guard *service.Guard) {
	g := e.Group(
		APIPrefix+"/wardens",
		middleware.Authenticate(guard),
		middleware.RequireRole(guard, model.RoleWarden),
	)
	g.GET("/complaints", h.ListAll)
	g.GET("/complaints/:id", h.Get)
	g.PATCH("/complaints/:id", h.UpdateStatus)
}
