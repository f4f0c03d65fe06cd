package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-buddy/internal/assets"
	"github.com/iliyamo/hostel-buddy/internal/service"
)

// requestTimeout bounds the storage work of a single request.
const requestTimeout = 5 * time.Second

// Envelope is the shape of every JSON response.  Status is "success" for
// 2xx, "fail" for client errors and "error" for server errors.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func success(c echo.Context, code int, msg string, data any) error {
	return c.JSON(code, Envelope{Status: "success", Message: msg, Data: data})
}

func failure(c echo.Context, code int, msg string) error {
	status := "fail"
	if code >= http.StatusInternalServerError {
		status = "error"
	}
	return c.JSON(code, Envelope{Status: status, Message: msg})
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// statusOf maps an error kind to an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidOrExpiredCode),
		errors.Is(err, assets.ErrUnsupportedType),
		errors.Is(err, assets.ErrTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders every error returned by handlers and middleware as
// an Envelope.  Server errors are logged and answered with a generic
// message so internals never reach the client.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code int
		msg  string
		he   *echo.HTTPError
		se   *service.Error
	)
	switch {
	case errors.As(err, &he):
		code = he.Code
		msg = http.StatusText(code)
		if m, ok := he.Message.(string); ok && code < http.StatusInternalServerError {
			msg = m
		}
	case errors.As(err, &se):
		code = statusOf(se)
		msg = se.Msg
	default:
		code = statusOf(err)
		msg = err.Error()
	}

	if code >= http.StatusInternalServerError {
		log.Printf("http: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		msg = "something went wrong"
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = failure(c, code, msg)
	}
	if werr != nil {
		log.Printf("http: write error response: %v", werr)
	}
}
