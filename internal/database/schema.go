package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Index names are referenced by repository.duplicateField to tell which
// unique constraint a 1062 error came from.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id             CHAR(36)     NOT NULL,
		full_name      VARCHAR(120) NOT NULL,
		email          VARCHAR(254) NOT NULL,
		password_hash  VARCHAR(100) NOT NULL,
		role           ENUM('student','warden') NOT NULL,
		roll_number    VARCHAR(64)  NULL,
		department     VARCHAR(120) NULL,
		staff_id       VARCHAR(64)  NULL,
		contact        VARCHAR(32)  NULL,
		address        VARCHAR(255) NULL,
		image_url      VARCHAR(512) NULL,
		otp_code_hash  CHAR(64)     NULL,
		otp_expires_at DATETIME     NULL,
		otp_attempts   INT          NOT NULL DEFAULT 0,
		created_at     DATETIME     NOT NULL,
		updated_at     DATETIME     NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_roll_number (roll_number),
		UNIQUE KEY uq_users_staff_id (staff_id),
		UNIQUE KEY uq_users_contact (contact)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS complaints (
		id               CHAR(36)     NOT NULL,
		category         ENUM('Electrical','Plumbing','Furniture','Cleaning','Other') NOT NULL,
		description      VARCHAR(500) NOT NULL,
		image_url        VARCHAR(512) NOT NULL DEFAULT '',
		status           ENUM('Pending','InProgress','Resolved') NOT NULL DEFAULT 'Pending',
		submitted_by     CHAR(36)     NOT NULL,
		assigned_staff   VARCHAR(120) NULL,
		resolution_notes VARCHAR(1000) NULL,
		created_at       DATETIME(6)  NOT NULL,
		updated_at       DATETIME(6)  NOT NULL,
		PRIMARY KEY (id),
		KEY idx_complaints_owner_created (submitted_by, created_at),
		KEY idx_complaints_created (created_at),
		CONSTRAINT fk_complaints_user FOREIGN KEY (submitted_by) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the service needs when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
