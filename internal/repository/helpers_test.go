package repository

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

// sqlText matches s literally.  sqlmock collapses whitespace runs in both
// the expectation and the executed statement before matching.
func sqlText(s string) string { return regexp.QuoteMeta(s) }

var userCols = []string{"id", "full_name", "email", "password_hash", "role", "roll_number", "department",
	"staff_id", "contact", "address", "image_url", "otp_code_hash", "otp_expires_at", "created_at", "updated_at"}

func userRow(id, contact string) *sqlmock.Rows {
	var c any
	if contact != "" {
		c = contact
	}
	return sqlmock.NewRows(userCols).AddRow(id, "Asha", "asha@example.com", "$2a$hash", "student",
		"R1", nil, nil, c, nil, nil, nil, nil, t0, t0)
}

var complaintCols = []string{"id", "category", "description", "image_url", "status", "submitted_by",
	"assigned_staff", "resolution_notes", "created_at", "updated_at"}

func complaintRow(id, status string) *sqlmock.Rows {
	return sqlmock.NewRows(complaintCols).AddRow(id, "Plumbing", "Leaking tap", "", status, "u1",
		nil, nil, t0, t0)
}
