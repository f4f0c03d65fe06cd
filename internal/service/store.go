package service

import (
	"context"
	"time"

	"github.com/iliyamo/hostel-buddy/internal/model"
)

// UserStore is the credential store.  repository.UserRepo implements it
// against MySQL; servicetest.Users implements it in memory.  Lookups that
// match nothing return repository.ErrNotFound and unique collisions
// return *repository.DuplicateError.
type UserStore interface {
	Create(ctx context.Context, u model.User) error
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByContact(ctx context.Context, contact string) (model.User, error)
	UpdateProfile(ctx context.Context, id string, p model.ProfileUpdate, at time.Time) (model.User, error)
	SetOTP(ctx context.Context, id, codeHash string, exp time.Time) error
	ResetPasswordWithOTP(ctx context.Context, id, codeHash, passwordHash string, now time.Time) (bool, error)
	// RecordOTPFailure counts a failed guess and clears the outstanding
	// challenge once limit guesses have failed.
	RecordOTPFailure(ctx context.Context, id string, limit int) error
}

// ComplaintStore persists complaints.  UpdateStatus must apply the change
// only while the stored status is one the target may be entered from,
// returning repository.ErrConflict otherwise.
type ComplaintStore interface {
	Create(ctx context.Context, c model.Complaint) error
	GetByID(ctx context.Context, id string) (model.Complaint, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Complaint, error)
	ListAll(ctx context.Context) ([]model.ComplaintWithOwner, error)
	UpdateStatus(ctx context.Context, id string, ch model.StatusChange) (model.Complaint, error)
}

// Notifier delivers out-of-band messages to users.  Failures are logged by
// the caller and never abort the operation that triggered them.
type Notifier interface {
	SendOTP(ctx context.Context, to model.User, code string, expiresAt time.Time) error
	ComplaintStatusChanged(ctx context.Context, owner model.User, c model.Complaint) error
}
