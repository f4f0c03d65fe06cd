package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/hostel-buddy/internal/handler"    // import the handlers that implement the endpoints
	"github.com/iliyamo/hostel-buddy/internal/middleware" // import middleware for authentication and role enforcement
	"github.com/iliyamo/hostel-buddy/internal/service"
)

// APIPrefix is the path every versioned endpoint lives under.
const APIPrefix = "/api/v1"

// Limits groups the rate-limit middlewares applied to the auth routes.  A
// nil entry means no limiting.
type Limits struct {
	Auth echo.MiddlewareFunc // register, login, verify-otp, reset-password
	OTP  echo.MiddlewareFunc // send-otp
}

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the health check and the uploaded images.
func RegisterRoutes(e *echo.Echo, db *sql.DB, uploadDir string) {
	// Map the GET request at path "/healthz" to the Health handler.
	e.GET("/healthz", handler.Health(db))
	if uploadDir != "" {
		e.Static("/uploads", uploadDir)
	}
}

// RegisterAuth registers all authentication-related routes and their
// middleware.  Credential and recovery operations live under /auth and are
// rate limited; the profile endpoints need a valid token and accept any role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, guard *service.Guard, lim Limits) {
	g := e.Group(APIPrefix + "/auth")
	authLimit := orPass(lim.Auth)
	g.POST("/register", a.Register, authLimit)
	g.POST("/login", a.Login, authLimit)
	g.POST("/send-otp", a.SendOTP, authLimit, orPass(lim.OTP))
	g.POST("/verify-otp", a.VerifyOTP, authLimit)
	g.POST("/reset-password", a.ResetPassword, authLimit)

	me := g.Group("/me", middleware.Authenticate(guard))
	me.GET("", a.Me)
	me.PATCH("", a.UpdateMe)
}

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m != nil {
		return m
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
}
