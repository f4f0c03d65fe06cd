package router_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/hostel-buddy/internal/assets"
	"github.com/iliyamo/hostel-buddy/internal/handler"
	"github.com/iliyamo/hostel-buddy/internal/router"
	"github.com/iliyamo/hostel-buddy/internal/service"
	"github.com/iliyamo/hostel-buddy/internal/service/servicetest"
	"github.com/iliyamo/hostel-buddy/internal/utils"
)

type app struct {
	e        *echo.Echo
	notifier *servicetest.Notifier
	uploads  string
}

func newApp(t *testing.T) *app {
	t.Helper()
	users := servicetest.NewUsers()
	complaints := servicetest.NewComplaints(users)
	notifier := &servicetest.Notifier{}
	tokens := utils.NewTokenService("secret", "HostelBuddy", time.Hour)
	guard := service.NewGuard(tokens, users)

	uploads := t.TempDir()
	images, err := assets.NewDiskStore(uploads, "http://test")
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler
	router.RegisterRoutes(e, nil, uploads)
	router.RegisterAuth(e, handler.NewAuthHandler(
		service.NewAuthService(users, tokens, bcrypt.MinCost),
		service.NewOTPService(users, notifier, 10*time.Minute, bcrypt.MinCost),
		images,
	), guard, router.Limits{})
	ch := handler.NewComplaintHandler(service.NewComplaintService(complaints, users, notifier), images)
	router.RegisterStudent(e, ch, guard)
	router.RegisterWarden(e, ch, guard)
	return &app{e: e, notifier: notifier, uploads: uploads}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *app) do(t *testing.T, method, path, token string, body any) (int, envelope, string) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return a.serve(t, req)
}

func (a *app) serve(t *testing.T, req *http.Request) (int, envelope, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	raw := rec.Body.String()
	var env envelope
	if strings.HasPrefix(strings.TrimSpace(raw), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), raw)
	}
	return rec.Code, env, raw
}

type session struct {
	Token string `json:"token"`
	User  struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

func (a *app) register(t *testing.T, body map[string]string) session {
	t.Helper()
	code, env, raw := a.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, code, raw)
	assert.Equal(t, "success", env.Status)
	assert.NotContains(t, strings.ToLower(raw), "password")
	var s session
	require.NoError(t, json.Unmarshal(env.Data, &s))
	return s
}

func studentBody(name, email, roll string) map[string]string {
	return map[string]string{
		"fullName": name, "email": email, "password": "password123",
		"confirmPassword": "password123", "role": "student", "rollNumber": roll,
	}
}

func wardenBody(name, email, staff string) map[string]string {
	return map[string]string{
		"fullName": name, "email": email, "password": "password123",
		"confirmPassword": "password123", "role": "warden", "staffId": staff,
	}
}

func TestComplaintFlowOverHTTP(t *testing.T) {
	a := newApp(t)
	asha := a.register(t, studentBody("Asha", "asha@example.com", "R1"))
	wen := a.register(t, wardenBody("Wen", "wen@example.com", "S1"))

	code, env, _ := a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "asha@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "fail", env.Status)

	code, env, raw := a.do(t, http.MethodPost, "/api/v1/students/complaints", asha.Token,
		map[string]string{"category": "Plumbing", "description": "Leaking tap", "submittedBy": wen.User.ID})
	require.Equal(t, http.StatusCreated, code, raw)
	var created struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		SubmittedBy string `json:"submittedBy"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Pending", created.Status)
	assert.Equal(t, asha.User.ID, created.SubmittedBy)

	code, _, _ = a.do(t, http.MethodGet, "/api/v1/wardens/complaints", asha.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _, _ = a.do(t, http.MethodPost, "/api/v1/students/complaints", wen.Token, map[string]string{"category": "Other", "description": "x"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _, _ = a.do(t, http.MethodGet, "/api/v1/students/complaints", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env, raw = a.do(t, http.MethodGet, "/api/v1/wardens/complaints", wen.Token, nil)
	require.Equal(t, http.StatusOK, code, raw)
	assert.Contains(t, string(env.Data), `"rollNumber":"R1"`)

	code, env, raw = a.do(t, http.MethodPatch, "/api/v1/wardens/complaints/"+created.ID, wen.Token,
		map[string]string{"status": "Resolved", "resolutionNotes": "fixed"})
	require.Equal(t, http.StatusOK, code, raw)
	assert.Equal(t, "success", env.Status)

	code, env, _ = a.do(t, http.MethodPatch, "/api/v1/wardens/complaints/"+created.ID, wen.Token, map[string]string{"status": "Pending"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "fail", env.Status)

	code, env, _ = a.do(t, http.MethodGet, "/api/v1/students/complaints", asha.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var mine []struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "Resolved", mine[0].Status)

	code, _, _ = a.do(t, http.MethodPatch, "/api/v1/wardens/complaints/nope", wen.Token, map[string]string{"status": "Resolved"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStudentCannotReadOthersComplaint(t *testing.T) {
	a := newApp(t)
	one := a.register(t, studentBody("One", "one@example.com", "R1"))
	two := a.register(t, studentBody("Two", "two@example.com", "R2"))

	code, env, _ := a.do(t, http.MethodPost, "/api/v1/students/complaints", one.Token, map[string]string{"category": "Other", "description": "Noise"})
	require.Equal(t, http.StatusCreated, code)
	var c struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &c))

	code, _, _ = a.do(t, http.MethodGet, "/api/v1/students/complaints/"+c.ID, two.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _, _ = a.do(t, http.MethodGet, "/api/v1/students/complaints/"+c.ID, one.Token, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestPasswordRecoveryOverHTTP(t *testing.T) {
	a := newApp(t)
	a.register(t, studentBody("Asha", "asha@example.com", "R1"))

	code, _, _ := a.do(t, http.MethodPost, "/api/v1/auth/send-otp", "", map[string]string{"identifier": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, code)

	code, env, _ := a.do(t, http.MethodPost, "/api/v1/auth/send-otp", "", map[string]string{"identifier": "asha@example.com"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", env.Status)
	otp := a.notifier.LastOTP()
	require.Len(t, otp, 6)

	code, _, _ = a.do(t, http.MethodPost, "/api/v1/auth/verify-otp", "", map[string]string{"identifier": "asha@example.com", "otp": "000000"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _, _ = a.do(t, http.MethodPost, "/api/v1/auth/verify-otp", "", map[string]string{"identifier": "asha@example.com", "otp": otp})
	assert.Equal(t, http.StatusOK, code)

	reset := map[string]string{"identifier": "asha@example.com", "otp": otp, "newPassword": "brand-new-pass", "confirmPassword": "brand-new-pass"}
	code, _, _ = a.do(t, http.MethodPost, "/api/v1/auth/reset-password", "", reset)
	assert.Equal(t, http.StatusOK, code)
	code, _, _ = a.do(t, http.MethodPost, "/api/v1/auth/reset-password", "", reset)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, _ = a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "asha@example.com", "password": "brand-new-pass"})
	assert.Equal(t, http.StatusOK, code)
}

func TestProfileOverHTTP(t *testing.T) {
	a := newApp(t)
	s := a.register(t, studentBody("Asha", "asha@example.com", "R1"))

	code, env, raw := a.do(t, http.MethodGet, "/api/v1/auth/me", s.Token, nil)
	require.Equal(t, http.StatusOK, code, raw)
	assert.NotContains(t, strings.ToLower(raw), "password")
	assert.NotContains(t, strings.ToLower(raw), "otp")
	assert.Contains(t, string(env.Data), `"email":"asha@example.com"`)

	code, env, raw = a.do(t, http.MethodPatch, "/api/v1/auth/me", s.Token, map[string]string{"address": "Block C", "role": "warden"})
	require.Equal(t, http.StatusOK, code, raw)
	assert.Contains(t, string(env.Data), `"address":"Block C"`)
	assert.Contains(t, string(env.Data), `"role":"student"`)
}

func TestComplaintWithImageUpload(t *testing.T) {
	a := newApp(t)
	s := a.register(t, studentBody("Asha", "asha@example.com", "R1"))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("category", "Electrical"))
	require.NoError(t, w.WriteField("description", "Sparking socket"))
	part, err := w.CreateFormFile("image", "socket.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/complaints", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.Token)
	code, env, raw := a.serve(t, req)
	require.Equal(t, http.StatusCreated, code, raw)

	var c struct {
		ImageURL string `json:"imageUrl"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &c))
	require.True(t, strings.HasPrefix(c.ImageURL, "http://test/uploads/"), c.ImageURL)

	code, _, _ = a.serve(t, httptest.NewRequest(http.MethodGet, strings.TrimPrefix(c.ImageURL, "http://test"), nil))
	assert.Equal(t, http.StatusOK, code)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	a := newApp(t)
	code, _, raw := a.serve(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", raw)

	code, env, _ := a.serve(t, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "fail", env.Status)
}
