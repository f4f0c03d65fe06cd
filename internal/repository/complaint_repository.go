package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/hostel-buddy/internal/model"
)

// ComplaintRepo provides persistence for complaints.  The submitting user
// is fixed at insert time; only the status, assignment and resolution
// notes change afterwards, and only through UpdateStatus.  All timestamp
// fields are stored in UTC.
type ComplaintRepo struct {
	db *sql.DB
}

// NewComplaintRepo returns a new ComplaintRepo bound to the given database.
func NewComplaintRepo(db *sql.DB) *ComplaintRepo { return &ComplaintRepo{db: db} }

const complaintColumns = `c.id, c.category, c.description, c.image_url, c.status, c.submitted_by,
	c.assigned_staff, c.resolution_notes, c.created_at, c.updated_at`

func scanComplaint(row rowScanner, extra ...any) (model.Complaint, error) {
	var (
		c            model.Complaint
		staff, notes sql.NullString
	)
	dest := append([]any{&c.ID, &c.Category, &c.Description, &c.ImageURL, &c.Status, &c.SubmittedBy,
		&staff, &notes, &c.CreatedAt, &c.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.Complaint{}, translate(err)
	}
	c.AssignedStaff, c.ResolutionNotes = staff.String, notes.String
	c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
	return c, nil
}

// Create inserts c.  The caller assigns ID, status and timestamps.
func (r *ComplaintRepo) Create(ctx context.Context, c model.Complaint) error {
	const q = `INSERT INTO complaints (id, category, description, image_url, status, submitted_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, c.ID, string(c.Category), c.Description, c.ImageURL,
		string(c.Status), c.SubmittedBy, c.CreatedAt, c.UpdatedAt)
	return translate(err)
}

// GetByID returns a single complaint or ErrNotFound.
func (r *ComplaintRepo) GetByID(ctx context.Context, id string) (model.Complaint, error) {
	return scanComplaint(r.db.QueryRowContext(ctx,
		"SELECT "+complaintColumns+" FROM complaints c WHERE c.id = ? LIMIT 1", id))
}

// ListByOwner returns the complaints submitted by ownerID, newest first.
func (r *ComplaintRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Complaint, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+complaintColumns+` FROM complaints c WHERE c.submitted_by = ?
		 ORDER BY c.created_at DESC, c.id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Complaint, 0)
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListAll returns every complaint joined with its owner's display fields,
// newest first.
func (r *ComplaintRepo) ListAll(ctx context.Context) ([]model.ComplaintWithOwner, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+complaintColumns+`, u.id, u.full_name, u.email, u.roll_number
		 FROM complaints c JOIN users u ON u.id = c.submitted_by
		 ORDER BY c.created_at DESC, c.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ComplaintWithOwner, 0)
	for rows.Next() {
		var (
			o    model.ComplaintOwner
			roll sql.NullString
		)
		c, err := scanComplaint(rows, &o.ID, &o.FullName, &o.Email, &roll)
		if err != nil {
			return nil, err
		}
		o.RollNumber = roll.String
		out = append(out, model.ComplaintWithOwner{Complaint: c, Owner: o})
	}
	return out, rows.Err()
}

// UpdateStatus writes ch to complaint id in one conditional statement that
// only matches while the stored status is one ch.Status may be entered
// from.  When nothing matched it tells a missing row (ErrNotFound) from a
// row in a disallowed status (ErrConflict).  Nil optional fields keep
// their stored values.
func (r *ComplaintRepo) UpdateStatus(ctx context.Context, id string, ch model.StatusChange) (model.Complaint, error) {
	from := model.AllowedFrom(ch.Status)
	if len(from) == 0 {
		return model.Complaint{}, ErrConflict
	}
	args := []any{string(ch.Status), optString(ch.AssignedStaff), optString(ch.ResolutionNotes), ch.At.UTC(), id}
	for _, s := range from {
		args = append(args, string(s))
	}
	q := `UPDATE complaints SET status = ?,
			assigned_staff   = COALESCE(?, assigned_staff),
			resolution_notes = COALESCE(?, resolution_notes),
			updated_at = ?
		 WHERE id = ? AND status IN (` + strings.TrimSuffix(strings.Repeat("?,", len(from)), ",") + `)`
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return model.Complaint{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Complaint{}, err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return model.Complaint{}, err
		}
		return model.Complaint{}, ErrConflict
	}
	return r.GetByID(ctx, id)
}

func optString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
