package service

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/iliyamo/hostel-buddy/internal/model"
	"github.com/iliyamo/hostel-buddy/internal/repository"
	"github.com/iliyamo/hostel-buddy/internal/utils"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Column widths of the users table, counted in characters.
const (
	maxFullNameLen   = 120
	maxEmailLen      = 254
	maxRollNumberLen = 64
	maxDepartmentLen = 120
	maxStaffIDLen    = 64
	maxContactLen    = 32
	maxAddressLen    = 255
	maxImageURLLen   = 512
)

// checkLen rejects a value that would not fit its column.
func checkLen(field, v string, limit int) error {
	if utf8.RuneCountInString(v) > limit {
		return validation("%s must be at most %d characters", field, limit)
	}
	return nil
}

// checkLens applies checkLen to name/value pairs and returns the first
// failure.
func checkLens(fields ...lenCheck) error {
	for _, f := range fields {
		if err := checkLen(f.field, f.v, f.limit); err != nil {
			return err
		}
	}
	return nil
}

type lenCheck struct {
	field string
	v     string
	limit int
}

// RegisterInput is the raw registration request.  Role attributes that do
// not belong to Role are ignored.
type RegisterInput struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
	Role            string
	RollNumber      string
	Department      string
	StaffID         string
	Contact         string
	Address         string
}

// Session is what a successful register or login hands back to the client.
type Session struct {
	User      model.PublicUser `json:"user"`
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// AuthService owns the credential store: it creates accounts, checks
// passwords, and reads or edits the caller's own profile.
type AuthService struct {
	users      UserStore
	tokens     *utils.TokenService
	bcryptCost int

	Now   func() time.Time
	NewID func() string
}

func NewAuthService(users UserStore, tokens *utils.TokenService, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		Now:        time.Now,
		NewID:      uuid.NewString,
	}
}

// Register validates in, stores exactly one new user and opens a session
// for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	u, err := s.validateRegistration(in)
	if err != nil {
		return Session{}, err
	}

	// Friendly pre-check; the unique index still decides under races.
	if _, err := s.users.GetByEmail(ctx, u.Email); err == nil {
		return Session{}, fail(ErrConflict, "email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return Session{}, persistence("lookup email", err)
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return Session{}, persistence("hash password", err)
	}
	now := s.Now().UTC().Truncate(time.Second)
	u.ID = s.NewID()
	u.PasswordHash = hash
	u.CreatedAt, u.UpdatedAt = now, now

	if err := s.users.Create(ctx, u); err != nil {
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			return Session{}, fail(ErrConflict, "%s already registered", dup.Field)
		}
		return Session{}, persistence("create user", err)
	}
	log.Printf("auth: registered %s user %s", u.Role, u.ID)
	return s.open(u)
}

func (s *AuthService) validateRegistration(in RegisterInput) (model.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := model.NormalizeEmail(in.Email)
	switch {
	case fullName == "":
		return model.User{}, validation("fullName is required")
	case email == "":
		return model.User{}, validation("email is required")
	case in.Password == "":
		return model.User{}, validation("password is required")
	case in.ConfirmPassword == "":
		return model.User{}, validation("confirmPassword is required")
	case strings.TrimSpace(in.Role) == "":
		return model.User{}, validation("role is required")
	}
	if err := checkLen("email", email, maxEmailLen); err != nil {
		return model.User{}, err
	}
	if !emailPattern.MatchString(email) {
		return model.User{}, validation("email is not valid")
	}
	if in.Password != in.ConfirmPassword {
		return model.User{}, validation("passwords do not match")
	}
	if err := utils.CheckPasswordPolicy(in.Password); err != nil {
		return model.User{}, validation("%s", err.Error())
	}
	role, ok := model.ParseRole(in.Role)
	if !ok {
		return model.User{}, validation("role must be student or warden")
	}

	u := model.User{
		FullName: fullName,
		Email:    email,
		Role:     role,
		Contact:  strings.TrimSpace(in.Contact),
		Address:  strings.TrimSpace(in.Address),
	}
	if err := checkLens(
		lenCheck{"fullName", u.FullName, maxFullNameLen},
		lenCheck{"contact", u.Contact, maxContactLen},
		lenCheck{"address", u.Address, maxAddressLen},
	); err != nil {
		return model.User{}, err
	}
	switch role {
	case model.RoleStudent:
		roll, dept := strings.TrimSpace(in.RollNumber), strings.TrimSpace(in.Department)
		if roll == "" {
			return model.User{}, validation("rollNumber is required for students")
		}
		if err := checkLens(
			lenCheck{"rollNumber", roll, maxRollNumberLen},
			lenCheck{"department", dept, maxDepartmentLen},
		); err != nil {
			return model.User{}, err
		}
		u.Attrs.Student = &model.StudentAttrs{RollNumber: roll, Department: dept}
	case model.RoleWarden:
		staff := strings.TrimSpace(in.StaffID)
		if staff == "" {
			return model.User{}, validation("staffId is required for wardens")
		}
		if err := checkLen("staffId", staff, maxStaffIDLen); err != nil {
			return model.User{}, err
		}
		u.Attrs.Warden = &model.WardenAttrs{StaffID: staff}
	}
	return u, nil
}

// Login checks email and password.  An unknown email and a wrong password
// produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, validation("email and password are required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, errBadCredentials
		}
		return Session{}, persistence("lookup email", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, errBadCredentials
	}
	return s.open(u)
}

func (s *AuthService) open(u model.User) (Session, error) {
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, persistence("issue token", err)
	}
	return Session{User: u.Public(), Token: tok.Token, ExpiresAt: tok.Exp}, nil
}

// Profile returns the caller's own record.
func (s *AuthService) Profile(ctx context.Context, who Identity) (model.PublicUser, error) {
	if who.IsZero() {
		return model.PublicUser{}, errMissingIdentity
	}
	u, err := s.users.GetByID(ctx, who.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.PublicUser{}, fail(ErrUnauthenticated, "account no longer exists")
		}
		return model.PublicUser{}, persistence("load profile", err)
	}
	return u.Public(), nil
}

// UpdateProfile edits the caller's own record.  Role, email and role
// attributes cannot be changed here.
func (s *AuthService) UpdateProfile(ctx context.Context, who Identity, p model.ProfileUpdate) (model.PublicUser, error) {
	if who.IsZero() {
		return model.PublicUser{}, errMissingIdentity
	}
	p = model.ProfileUpdate{
		FullName: trimOpt(p.FullName),
		Contact:  trimOpt(p.Contact),
		Address:  trimOpt(p.Address),
		ImageURL: trimOpt(p.ImageURL),
	}
	if p.FullName != nil && *p.FullName == "" {
		return model.PublicUser{}, validation("fullName cannot be empty")
	}
	if p.FullName == nil && p.Contact == nil && p.Address == nil && p.ImageURL == nil {
		return model.PublicUser{}, validation("nothing to update")
	}
	if err := checkLens(
		lenCheck{"fullName", deref(p.FullName), maxFullNameLen},
		lenCheck{"contact", deref(p.Contact), maxContactLen},
		lenCheck{"address", deref(p.Address), maxAddressLen},
		lenCheck{"imageUrl", deref(p.ImageURL), maxImageURLLen},
	); err != nil {
		return model.PublicUser{}, err
	}

	u, err := s.users.UpdateProfile(ctx, who.UserID, p, s.Now().UTC().Truncate(time.Second))
	if err != nil {
		var dup *repository.DuplicateError
		switch {
		case errors.As(err, &dup):
			return model.PublicUser{}, fail(ErrConflict, "%s already registered", dup.Field)
		case errors.Is(err, repository.ErrNotFound):
			return model.PublicUser{}, fail(ErrUnauthenticated, "account no longer exists")
		}
		return model.PublicUser{}, persistence("update profile", err)
	}
	return u.Public(), nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
