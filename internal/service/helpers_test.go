package service_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/hostel-buddy/internal/service"
	"github.com/iliyamo/hostel-buddy/internal/service/servicetest"
	"github.com/iliyamo/hostel-buddy/internal/utils"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type env struct {
	clock      *clock
	users      *servicetest.Users
	complaints *servicetest.Complaints
	notifier   *servicetest.Notifier
	tokens     *utils.TokenService
	auth       *service.AuthService
	guard      *service.Guard
	otp        *service.OTPService
	lifecycle  *service.ComplaintService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		clock:    &clock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		users:    servicetest.NewUsers(),
		notifier: &servicetest.Notifier{},
	}
	e.complaints = servicetest.NewComplaints(e.users)
	e.tokens = utils.NewTokenService("test-secret", "HostelBuddy", time.Hour).WithClock(e.clock.Now)

	var seq atomic.Int64
	nextID := func() string { return fmt.Sprintf("id-%03d", seq.Add(1)) }

	e.auth = service.NewAuthService(e.users, e.tokens, bcrypt.MinCost)
	e.auth.Now, e.auth.NewID = e.clock.Now, nextID
	e.guard = service.NewGuard(e.tokens, e.users)
	e.otp = service.NewOTPService(e.users, e.notifier, 10*time.Minute, bcrypt.MinCost)
	e.otp.Now = e.clock.Now
	e.lifecycle = service.NewComplaintService(e.complaints, e.users, e.notifier)
	e.lifecycle.Now, e.lifecycle.NewID = e.clock.Now, nextID
	return e
}

func (e *env) registerStudent(t *testing.T, name, email, roll string) service.Session {
	t.Helper()
	s, err := e.auth.Register(context.Background(), service.RegisterInput{
		FullName: name, Email: email, Password: "password123", ConfirmPassword: "password123",
		Role: "student", RollNumber: roll,
	})
	require.NoError(t, err)
	return s
}

func (e *env) registerWarden(t *testing.T, name, email, staffID string) service.Session {
	t.Helper()
	s, err := e.auth.Register(context.Background(), service.RegisterInput{
		FullName: name, Email: email, Password: "password123", ConfirmPassword: "password123",
		Role: "warden", StaffID: staffID,
	})
	require.NoError(t, err)
	return s
}

// identity resolves a session token the way the HTTP middleware does.
func (e *env) identity(t *testing.T, s service.Session) service.Identity {
	t.Helper()
	who, err := e.guard.Authenticate(context.Background(), "Bearer "+s.Token)
	require.NoError(t, err)
	return who
}
