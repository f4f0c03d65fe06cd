package model

import (
	"strings"
	"time"
)

// Role is the fixed category a user registers with.  It decides which
// routes the user may call and never changes after registration.
type Role string

const (
	RoleStudent Role = "student"
	RoleWarden  Role = "warden"
)

// ParseRole normalises a client-supplied role name.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleStudent, RoleWarden:
		return r, true
	}
	return "", false
}

// RoleAttrs carries the attributes that only exist for one role.  Exactly
// one of Student or Warden is non-nil and it matches User.Role.
type RoleAttrs struct {
	Student *StudentAttrs
	Warden  *WardenAttrs
}

// StudentAttrs are stored in users.roll_number and users.department.
type StudentAttrs struct {
	RollNumber string `json:"rollNumber"`
	Department string `json:"department,omitempty"`
}

// WardenAttrs are stored in users.staff_id.
type WardenAttrs struct {
	StaffID string `json:"staffId"`
}

// User mirrors the users table.
//
// Fields:
//
//	PasswordHash – bcrypt hash; never leaves the service layer.
//	OTPCodeHash  – SHA-256 hex of the outstanding reset code, empty when none.
//	OTPExpiresAt – expiry of that code; nil when no challenge is outstanding.
type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	Attrs        RoleAttrs
	Contact      string
	Address      string
	ImageURL     string
	OTPCodeHash  string
	OTPExpiresAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate lists the fields a user may change on their own record.
// Nil fields are left untouched.
type ProfileUpdate struct {
	FullName *string
	Contact  *string
	Address  *string
	ImageURL *string
}

// PublicUser is the only user representation that is serialised in
// responses.  It has no secret or OTP fields by construction.
type PublicUser struct {
	ID         string    `json:"id"`
	FullName   string    `json:"fullName"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	RollNumber string    `json:"rollNumber,omitempty"`
	Department string    `json:"department,omitempty"`
	StaffID    string    `json:"staffId,omitempty"`
	Contact    string    `json:"contact,omitempty"`
	Address    string    `json:"address,omitempty"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Public strips credentials and flattens the role attributes.
func (u User) Public() PublicUser {
	p := PublicUser{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      u.Role,
		Contact:   u.Contact,
		Address:   u.Address,
		ImageURL:  u.ImageURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if s := u.Attrs.Student; s != nil {
		p.RollNumber = s.RollNumber
		p.Department = s.Department
	}
	if w := u.Attrs.Warden; w != nil {
		p.StaffID = w.StaffID
	}
	return p
}

// NormalizeEmail is the canonical form used for storage and lookups, which
// makes email uniqueness case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
