package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/hostel-buddy/internal/model"
)

// UserRepo persists users, their role attributes and the outstanding
// password-reset challenge.  Emails are expected to be normalised by the
// caller; the unique index is the final arbiter of duplicates.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, full_name, email, password_hash, role, roll_number, department, staff_id,
	contact, address, image_url, otp_code_hash, otp_expires_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u                                     model.User
		roll, dept, staff, contact, addr, img sql.NullString
		otpHash                               sql.NullString
		otpExp                                sql.NullTime
	)
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role,
		&roll, &dept, &staff, &contact, &addr, &img, &otpHash, &otpExp,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, translate(err)
	}
	switch u.Role {
	case model.RoleStudent:
		u.Attrs.Student = &model.StudentAttrs{RollNumber: roll.String, Department: dept.String}
	case model.RoleWarden:
		u.Attrs.Warden = &model.WardenAttrs{StaffID: staff.String}
	}
	u.Contact, u.Address, u.ImageURL = contact.String, addr.String, img.String
	u.OTPCodeHash = otpHash.String
	if otpExp.Valid {
		t := otpExp.Time.UTC()
		u.OTPExpiresAt = &t
	}
	return u, nil
}

// nullable maps "" to NULL so optional unique columns do not collide on
// empty strings.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts u.  The caller assigns ID and timestamps.  A unique key
// collision is returned as *DuplicateError.
func (r *UserRepo) Create(ctx context.Context, u model.User) error {
	var roll, dept, staff string
	if s := u.Attrs.Student; s != nil {
		roll, dept = s.RollNumber, s.Department
	}
	if w := u.Attrs.Warden; w != nil {
		staff = w.StaffID
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (id, full_name, email, password_hash, role, roll_number, department,
			staff_id, contact, address, image_url, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		u.ID, u.FullName, u.Email, u.PasswordHash, string(u.Role),
		nullable(roll), nullable(dept), nullable(staff),
		nullable(u.Contact), nullable(u.Address), nullable(u.ImageURL),
		u.CreatedAt, u.UpdatedAt)
	return translate(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByContact fetches a user by contact number.
func (r *UserRepo) GetByContact(ctx context.Context, contact string) (model.User, error) {
	if contact == "" {
		return model.User{}, ErrNotFound
	}
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE contact=? LIMIT 1", contact))
}

// UpdateProfile applies the non-nil fields of p to user id and returns the
// fresh row.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, p model.ProfileUpdate, at time.Time) (model.User, error) {
	var fullName, contact, addr, img sql.NullString
	if p.FullName != nil {
		fullName = sql.NullString{String: *p.FullName, Valid: true}
	}
	// An explicit empty contact clears the column; NULL keeps the unique index happy.
	contactSet := p.Contact != nil
	if contactSet {
		contact = nullable(*p.Contact)
	}
	if p.Address != nil {
		addr = sql.NullString{String: *p.Address, Valid: true}
	}
	if p.ImageURL != nil {
		img = sql.NullString{String: *p.ImageURL, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET
			full_name = COALESCE(?, full_name),
			contact   = IF(?, ?, contact),
			address   = COALESCE(?, address),
			image_url = COALESCE(?, image_url),
			updated_at = ?
		 WHERE id = ?`,
		fullName, contactSet, contact, addr, img, at, id)
	if err != nil {
		return model.User{}, translate(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.User{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// SetOTP stores the digest and expiry of a new reset code, replacing any
// earlier challenge for the user and its failed attempts.
func (r *UserRepo) SetOTP(ctx context.Context, id, codeHash string, exp time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET otp_code_hash=?, otp_expires_at=?, otp_attempts=0 WHERE id=?",
		codeHash, exp.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPasswordWithOTP replaces the password hash and clears the challenge
// in a single statement, but only while codeHash is the outstanding
// challenge and it has not expired at now.  It reports whether a row was
// changed; of two concurrent callers with the same code at most one sees
// true.
func (r *UserRepo) ResetPasswordWithOTP(ctx context.Context, id, codeHash, passwordHash string, now time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash=?, otp_code_hash=NULL, otp_expires_at=NULL, otp_attempts=0, updated_at=?
		 WHERE id=? AND otp_code_hash=? AND otp_expires_at > ?`,
		passwordHash, now.UTC(), id, codeHash, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RecordOTPFailure counts a wrong guess against the outstanding challenge
// and drops the challenge once limit guesses have failed.  MySQL applies
// SET assignments left to right, so the counter is bumped last.
func (r *UserRepo) RecordOTPFailure(ctx context.Context, id string, limit int) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET
			otp_code_hash  = IF(otp_attempts + 1 >= ?, NULL, otp_code_hash),
			otp_expires_at = IF(otp_attempts + 1 >= ?, NULL, otp_expires_at),
			otp_attempts   = otp_attempts + 1
		 WHERE id = ? AND otp_code_hash IS NOT NULL`,
		limit, limit, id)
	return err
}
