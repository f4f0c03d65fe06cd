package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hostel-buddy/internal/assets"
	"github.com/iliyamo/hostel-buddy/internal/service"
)

func render(t *testing.T, method string, err error) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(method, "/x", nil), rec)
	ErrorHandler(err, c)

	var env Envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestErrorHandlerMapsKinds(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{&service.Error{Kind: service.ErrValidation, Msg: "email is required"}, http.StatusBadRequest, "email is required"},
		{&service.Error{Kind: service.ErrInvalidOrExpiredCode, Msg: "invalid or expired code"}, http.StatusBadRequest, "invalid or expired code"},
		{&service.Error{Kind: service.ErrUnauthenticated, Msg: "invalid email or password"}, http.StatusUnauthorized, "invalid email or password"},
		{&service.Error{Kind: service.ErrForbidden, Msg: "forbidden"}, http.StatusForbidden, "forbidden"},
		{&service.Error{Kind: service.ErrNotFound, Msg: "complaint not found"}, http.StatusNotFound, "complaint not found"},
		{&service.Error{Kind: service.ErrConflict, Msg: "email already registered"}, http.StatusConflict, "email already registered"},
		{&service.Error{Kind: service.ErrInvalidTransition, Msg: "cannot move"}, http.StatusConflict, "cannot move"},
		{fmt.Errorf("save: %w", assets.ErrTooLarge), http.StatusBadRequest, "save: " + assets.ErrTooLarge.Error()},
		{echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"), http.StatusMethodNotAllowed, "method not allowed"},
	}
	for _, tc := range cases {
		rec, env := render(t, http.MethodGet, tc.err)
		assert.Equal(t, tc.code, rec.Code, tc.msg)
		assert.Equal(t, "fail", env.Status)
		assert.Equal(t, tc.msg, env.Message)
	}
}

func TestErrorHandlerHidesServerErrors(t *testing.T) {
	errs := []error{
		errors.New("dial tcp 10.0.0.5:3306: connection refused"),
		&service.Error{Kind: service.ErrPersistence, Msg: "insert user", Err: errors.New("Error 1105: boom")},
		echo.NewHTTPError(http.StatusBadGateway, "upstream password=hunter2"),
	}
	for _, err := range errs {
		rec, env := render(t, http.MethodPost, err)
		assert.GreaterOrEqual(t, rec.Code, http.StatusInternalServerError)
		assert.Equal(t, "error", env.Status)
		assert.Equal(t, "something went wrong", env.Message)
		assert.NotContains(t, rec.Body.String(), "3306")
		assert.NotContains(t, rec.Body.String(), "hunter2")
	}
}

func TestErrorHandlerHead(t *testing.T) {
	rec, _ := render(t, http.MethodHead, echo.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, rec.Body.Len())
}
