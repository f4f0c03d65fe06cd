package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-buddy/internal/handler"
	"github.com/iliyamo/hostel-buddy/internal/middleware"
	"github.com/iliyamo/hostel-buddy/internal/model"
	"github.com/iliyamo/hostel-buddy/internal/service"
)

// RegisterStudent registers student-scoped endpoints under /api/v1/students.
// All routes require a valid token and the student role.  Students can file
// complaints, list their own and view one of their own by id.
func RegisterStudent(e *echo.Echo, h *handler.ComplaintHandler, guard *service.Guard) {
	g := e.Group(
		APIPrefix+"/students",
		middleware.Authenticate(guard),
		middleware.RequireRole(guard, model.RoleStudent),
	)
	g.POST("/complaints", h.Create)
	g.GET("/complaints", h.ListMine)
	g.GET("/complaints/:id", h.Get)
}
