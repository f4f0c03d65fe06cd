package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/hostel-buddy/internal/model"
	"github.com/iliyamo/hostel-buddy/internal/repository"
	"github.com/iliyamo/hostel-buddy/internal/utils"
)

// DefaultOTPTTL is how long a reset code stays valid when no TTL is configured.
const DefaultOTPTTL = 10 * time.Minute

// MaxOTPAttempts is how many wrong guesses an outstanding code survives.
const MaxOTPAttempts = 5

var errBadCode = fail(ErrInvalidOrExpiredCode, "invalid or expired code")

// OTPService runs the password recovery flow: a six digit code is issued
// to the user's email, optionally checked, and finally consumed together
// with the new password.  Only one code per user is outstanding; issuing
// a new one replaces the previous.
type OTPService struct {
	users      UserStore
	notifier   Notifier
	ttl        time.Duration
	bcryptCost int

	Now     func() time.Time
	NewCode func() (string, error)
}

func NewOTPService(users UserStore, notifier Notifier, ttl time.Duration, bcryptCost int) *OTPService {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPService{
		users:      users,
		notifier:   notifier,
		ttl:        ttl,
		bcryptCost: bcryptCost,
		Now:        time.Now,
		NewCode:    utils.NewOTPCode,
	}
}

// resolve finds the user an identifier refers to.  An identifier with an
// @ is treated as an email, anything else as a contact number.
func (s *OTPService) resolve(ctx context.Context, identifier string) (model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return model.User{}, validation("identifier is required")
	}
	var (
		u   model.User
		err error
	)
	if strings.Contains(identifier, "@") {
		u, err = s.users.GetByEmail(ctx, model.NormalizeEmail(identifier))
	} else {
		u, err = s.users.GetByContact(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, fail(ErrNotFound, "no account matches that identifier")
		}
		return model.User{}, persistence("resolve identifier", err)
	}
	return u, nil
}

// Issue creates a fresh code for the user behind identifier and hands it
// to the notifier.  Delivery problems are logged and not returned.
func (s *OTPService) Issue(ctx context.Context, identifier string) error {
	u, err := s.resolve(ctx, identifier)
	if err != nil {
		return err
	}
	code, err := s.NewCode()
	if err != nil {
		return persistence("generate code", err)
	}
	exp := s.Now().UTC().Add(s.ttl)
	if err := s.users.SetOTP(ctx, u.ID, utils.HashOTP(code), exp); err != nil {
		return persistence("store code", err)
	}
	if err := s.notifier.SendOTP(ctx, u, code, exp); err != nil {
		log.Printf("otp: deliver code to user %s failed: %v", u.ID, err)
	}
	return nil
}

// Verify reports whether code is the outstanding, unexpired code for the
// user.  It does not consume the code.
func (s *OTPService) Verify(ctx context.Context, identifier, code string) error {
	u, err := s.resolve(ctx, identifier)
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return validation("code is required")
	}
	if u.OTPExpiresAt == nil || !s.Now().UTC().Before(*u.OTPExpiresAt) || !utils.OTPMatches(u.OTPCodeHash, code) {
		s.recordFailure(ctx, u)
		return errBadCode
	}
	return nil
}

// recordFailure counts a wrong guess; the store drops the code after
// MaxOTPAttempts of them.
func (s *OTPService) recordFailure(ctx context.Context, u model.User) {
	if u.OTPCodeHash == "" {
		return
	}
	if err := s.users.RecordOTPFailure(ctx, u.ID, MaxOTPAttempts); err != nil {
		log.Printf("otp: record failed attempt for user %s: %v", u.ID, err)
	}
}

// Consume checks code and, when it is still valid, replaces the user's
// password and clears the code in one conditional update.  When two
// callers race with the same code exactly one succeeds.
func (s *OTPService) Consume(ctx context.Context, identifier, code, newPassword, confirmPassword string) error {
	code = strings.TrimSpace(code)
	switch {
	case code == "":
		return validation("code is required")
	case newPassword == "" || confirmPassword == "":
		return validation("password and confirmPassword are required")
	case newPassword != confirmPassword:
		return validation("passwords do not match")
	}
	if err := utils.CheckPasswordPolicy(newPassword); err != nil {
		return validation("%s", err.Error())
	}
	u, err := s.resolve(ctx, identifier)
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return persistence("hash password", err)
	}
	ok, err := s.users.ResetPasswordWithOTP(ctx, u.ID, utils.HashOTP(code), hash, s.Now().UTC())
	if err != nil {
		return persistence("reset password", err)
	}
	if !ok {
		s.recordFailure(ctx, u)
		return errBadCode
	}
	log.Printf("otp: password reset for user %s", u.ID)
	return nil
}
