package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/iliyamo/hostel-buddy/internal/model"
	"github.com/iliyamo/hostel-buddy/internal/repository"
)

const (
	maxAssignedStaffLen   = 120
	maxResolutionNotesLen = 1000
)

// NewComplaint is a student's submission.  The owner is never part of it;
// it always comes from the caller's Identity.
type NewComplaint struct {
	Category    string
	Description string
	ImageURL    string
}

// StatusUpdate is a warden's change to a complaint.  Nil optional fields
// keep their stored values.
type StatusUpdate struct {
	Status          string
	AssignedStaff   *string
	ResolutionNotes *string
}

// ComplaintService manages the complaint lifecycle.  Students create
// complaints and read their own; wardens read everything and move
// complaints forward through Pending, InProgress and Resolved.
type ComplaintService struct {
	complaints ComplaintStore
	users      UserStore
	notifier   Notifier

	Now   func() time.Time
	NewID func() string
}

func NewComplaintService(complaints ComplaintStore, users UserStore, notifier Notifier) *ComplaintService {
	return &ComplaintService{
		complaints: complaints,
		users:      users,
		notifier:   notifier,
		Now:        time.Now,
		NewID:      uuid.NewString,
	}
}

// Create files a new Pending complaint owned by who.
func (s *ComplaintService) Create(ctx context.Context, who Identity, in NewComplaint) (model.Complaint, error) {
	if err := authorize(who, model.RoleStudent); err != nil {
		return model.Complaint{}, err
	}
	cat, ok := model.ParseCategory(in.Category)
	if !ok {
		return model.Complaint{}, validation("category must be one of Electrical, Plumbing, Furniture, Cleaning, Other")
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return model.Complaint{}, validation("description is required")
	}
	if utf8.RuneCountInString(desc) > model.MaxDescriptionLen {
		return model.Complaint{}, validation("description must be at most %d characters", model.MaxDescriptionLen)
	}

	img := strings.TrimSpace(in.ImageURL)
	if err := checkLen("imageUrl", img, maxImageURLLen); err != nil {
		return model.Complaint{}, err
	}

	// complaints timestamps are DATETIME(6)
	now := s.Now().UTC().Truncate(time.Microsecond)
	c := model.Complaint{
		ID:          s.NewID(),
		Category:    cat,
		Description: desc,
		ImageURL:    img,
		Status:      model.StatusPending,
		SubmittedBy: who.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.complaints.Create(ctx, c); err != nil {
		return model.Complaint{}, persistence("create complaint", err)
	}
	return c, nil
}

// ListMine returns the caller's own complaints, newest first.
func (s *ComplaintService) ListMine(ctx context.Context, who Identity) ([]model.Complaint, error) {
	if who.IsZero() {
		return nil, errMissingIdentity
	}
	list, err := s.complaints.ListByOwner(ctx, who.UserID)
	if err != nil {
		return nil, persistence("list own complaints", err)
	}
	return list, nil
}

// Get returns one complaint.  Students only see their own; a complaint
// owned by someone else is reported as not found.
func (s *ComplaintService) Get(ctx context.Context, who Identity, id string) (model.Complaint, error) {
	if who.IsZero() {
		return model.Complaint{}, errMissingIdentity
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return model.Complaint{}, err
	}
	if who.Role != model.RoleWarden && c.SubmittedBy != who.UserID {
		return model.Complaint{}, errComplaintNotFound
	}
	return c, nil
}

// ListAll returns every complaint with its owner, newest first.  Wardens only.
func (s *ComplaintService) ListAll(ctx context.Context, who Identity) ([]model.ComplaintWithOwner, error) {
	if err := authorize(who, model.RoleWarden); err != nil {
		return nil, err
	}
	list, err := s.complaints.ListAll(ctx)
	if err != nil {
		return nil, persistence("list complaints", err)
	}
	return list, nil
}

// UpdateStatus moves complaint id to a new status.  Wardens only.  The
// owner is notified afterwards; a failed notification is only logged.
func (s *ComplaintService) UpdateStatus(ctx context.Context, who Identity, id string, in StatusUpdate) (model.Complaint, error) {
	if err := authorize(who, model.RoleWarden); err != nil {
		return model.Complaint{}, err
	}
	to, ok := model.ParseStatus(in.Status)
	if !ok {
		return model.Complaint{}, validation("status must be one of Pending, InProgress, Resolved")
	}
	staff, notes := trimOpt(in.AssignedStaff), trimOpt(in.ResolutionNotes)
	if staff != nil && utf8.RuneCountInString(*staff) > maxAssignedStaffLen {
		return model.Complaint{}, validation("assignedStaff must be at most %d characters", maxAssignedStaffLen)
	}
	if notes != nil && utf8.RuneCountInString(*notes) > maxResolutionNotesLen {
		return model.Complaint{}, validation("resolutionNotes must be at most %d characters", maxResolutionNotesLen)
	}

	cur, err := s.load(ctx, id)
	if err != nil {
		return model.Complaint{}, err
	}
	if !model.CanTransition(cur.Status, to) {
		return model.Complaint{}, invalidTransition(cur.Status, to)
	}

	updated, err := s.complaints.UpdateStatus(ctx, id, model.StatusChange{
		Status:          to,
		AssignedStaff:   staff,
		ResolutionNotes: notes,
		At:              s.Now().UTC().Truncate(time.Microsecond),
	})
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return model.Complaint{}, errComplaintNotFound
	case errors.Is(err, repository.ErrConflict):
		// Another warden moved it between our read and write.
		if latest, lerr := s.complaints.GetByID(ctx, id); lerr == nil {
			return model.Complaint{}, invalidTransition(latest.Status, to)
		}
		return model.Complaint{}, invalidTransition(cur.Status, to)
	default:
		return model.Complaint{}, persistence("update complaint status", err)
	}

	s.notifyOwner(ctx, updated)
	return updated, nil
}

func (s *ComplaintService) notifyOwner(ctx context.Context, c model.Complaint) {
	owner, err := s.users.GetByID(ctx, c.SubmittedBy)
	if err != nil {
		log.Printf("complaint: load owner of %s for notification: %v", c.ID, err)
		return
	}
	if err := s.notifier.ComplaintStatusChanged(ctx, owner, c); err != nil {
		log.Printf("complaint: notify owner of %s: %v", c.ID, err)
	}
}

var errComplaintNotFound = fail(ErrNotFound, "complaint not found")

func (s *ComplaintService) load(ctx context.Context, id string) (model.Complaint, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Complaint{}, errComplaintNotFound
	}
	c, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Complaint{}, errComplaintNotFound
		}
		return model.Complaint{}, persistence("load complaint", err)
	}
	return c, nil
}

func invalidTransition(from, to model.ComplaintStatus) *Error {
	return fail(ErrInvalidTransition, "cannot move a %s complaint to %s", from, to)
}

func trimOpt(p *string) *string {
	if p == nil {
		return nil
	}
	t := strings.TrimSpace(*p)
	return &t
}
