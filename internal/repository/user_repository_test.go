package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hostel-buddy/internal/model"
)

const resetWhere = "WHERE id=? AND otp_code_hash=? AND otp_expires_at > ?"

func TestResetPasswordWithOTPIsConditional(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(sqlText("otp_code_hash=NULL, otp_expires_at=NULL, otp_attempts=0")+".*"+sqlText(resetWhere)).
		WithArgs("$2a$new", t0, "u1", "digest", t0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.ResetPasswordWithOTP(context.Background(), "u1", "digest", "$2a$new", t0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResetPasswordWithOTPNoMatch(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	// a second consumer of the same code finds the row already cleared
	mock.ExpectExec(sqlText(resetWhere)).
		WithArgs("$2a$new", t0, "u1", "digest", t0).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err := repo.ResetPasswordWithOTP(context.Background(), "u1", "digest", "$2a$new", t0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResetPasswordWithOTPDriverError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(sqlText(resetWhere)).WillReturnError(errors.New("bad connection"))
	ok, err := NewUserRepo(db).ResetPasswordWithOTP(context.Background(), "u1", "digest", "h", t0)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestSetOTPResetsAttempts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	exp := t0.Add(10 * time.Minute)

	mock.ExpectExec(sqlText("UPDATE users SET otp_code_hash=?, otp_expires_at=?, otp_attempts=0 WHERE id=?")).
		WithArgs("digest", exp, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetOTP(context.Background(), "u1", "digest", exp))

	mock.ExpectExec(sqlText("UPDATE users SET otp_code_hash=?")).
		WithArgs("digest", exp, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SetOTP(context.Background(), "ghost", "digest", exp), ErrNotFound)
}

func TestRecordOTPFailure(t *testing.T) {
	db, mock := newMock(t)

	// the counter is bumped after the clearing assignments read it
	mock.ExpectExec(sqlText("otp_code_hash = IF(otp_attempts + 1 >= ?, NULL, otp_code_hash),") + ".*" +
		sqlText("otp_expires_at = IF(otp_attempts + 1 >= ?, NULL, otp_expires_at),") + ".*" +
		sqlText("otp_attempts = otp_attempts + 1") + ".*" +
		sqlText("WHERE id = ? AND otp_code_hash IS NOT NULL")).
		WithArgs(5, 5, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, NewUserRepo(db).RecordOTPFailure(context.Background(), "u1", 5))
}

const profileUpdate = "contact = IF(?, ?, contact)"

func TestUpdateProfileKeepsContactWhenAbsent(t *testing.T) {
	db, mock := newMock(t)
	name := "Asha K"

	mock.ExpectExec(sqlText(profileUpdate)).
		WithArgs(name, false, nil, nil, nil, t0, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sqlText("FROM users WHERE id=?")).WithArgs("u1").WillReturnRows(userRow("u1", "0300"))

	u, err := NewUserRepo(db).UpdateProfile(context.Background(), "u1", model.ProfileUpdate{FullName: &name}, t0)
	require.NoError(t, err)
	assert.Equal(t, "0300", u.Contact)
}

func TestUpdateProfileContact(t *testing.T) {
	cases := []struct {
		name    string
		contact string
		arg     any
	}{
		{"set", "0300", "0300"},
		{"clear", "", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectExec(sqlText(profileUpdate)).
				WithArgs(nil, true, tc.arg, nil, nil, t0, "u1").
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectQuery(sqlText("FROM users WHERE id=?")).WithArgs("u1").WillReturnRows(userRow("u1", tc.contact))

			contact := tc.contact
			u, err := NewUserRepo(db).UpdateProfile(context.Background(), "u1", model.ProfileUpdate{Contact: &contact}, t0)
			require.NoError(t, err)
			assert.Equal(t, tc.contact, u.Contact)
		})
	}
}

func TestUpdateProfileMissingUser(t *testing.T) {
	db, mock := newMock(t)
	addr := "Block C"
	mock.ExpectExec(sqlText(profileUpdate)).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := NewUserRepo(db).UpdateProfile(context.Background(), "ghost", model.ProfileUpdate{Address: &addr}, t0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfileDuplicateContact(t *testing.T) {
	db, mock := newMock(t)
	contact := "0300"
	mock.ExpectExec(sqlText(profileUpdate)).WillReturnError(&mysql.MySQLError{
		Number: 1062, Message: "Duplicate entry '0300' for key 'users.uq_users_contact'",
	})

	_, err := NewUserRepo(db).UpdateProfile(context.Background(), "u1", model.ProfileUpdate{Contact: &contact}, t0)
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, FieldContact, dup.Field)
}

func TestGetByContactEmptyNeverQueries(t *testing.T) {
	db, _ := newMock(t)
	_, err := NewUserRepo(db).GetByContact(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}
