// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to
// distinguish between different failure scenarios without looking at
// driver-specific errors. For example, ErrNotFound means no row matched
// the lookup, while a *DuplicateError names the unique field that an
// insert or update collided with.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup or targeted update matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an update cannot be performed because the
// row is no longer in a state that allows it, such as a complaint whose
// status moved on between read and write.
var ErrConflict = errors.New("conflict")

// ErrValueTooLong is returned when a value does not fit its column.
var ErrValueTooLong = errors.New("value too long for column")

// Unique fields reported by DuplicateError.
const (
	FieldEmail      = "email"
	FieldRollNumber = "rollNumber"
	FieldStaffID    = "staffId"
	FieldContact    = "contact"
)

// DuplicateError reports a unique-constraint collision on Field.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already in use", e.Field)
}

// MySQL server error numbers translate understands.
const (
	mysqlDuplicateEntry = 1062 // ER_DUP_ENTRY
	mysqlDataTooLong    = 1406 // ER_DATA_TOO_LONG
)

// uniqueIndexes maps the unique key names created by the schema to the
// field names clients see.
var uniqueIndexes = map[string]string{
	"uq_users_email":       FieldEmail,
	"uq_users_roll_number": FieldRollNumber,
	"uq_users_staff_id":    FieldStaffID,
	"uq_users_contact":     FieldContact,
}

// translate converts driver errors into the package sentinels.  Errors it
// does not recognise are returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return &DuplicateError{Field: duplicateField(me.Message)}
		case mysqlDataTooLong:
			return fmt.Errorf("%w: %s", ErrValueTooLong, me.Message)
		}
	}
	return err
}

// duplicateField extracts the field from a message of the form
// "Duplicate entry 'x' for key 'users.uq_users_email'".
func duplicateField(msg string) string {
	i := strings.LastIndex(msg, "for key ")
	if i < 0 {
		return "unknown"
	}
	key := strings.Trim(msg[i+len("for key "):], "'` ")
	if dot := strings.LastIndex(key, "."); dot >= 0 {
		key = key[dot+1:]
	}
	if f, ok := uniqueIndexes[key]; ok {
		return f
	}
	return "unknown"
}
