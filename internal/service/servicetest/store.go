// Package servicetest provides in-memory implementations of the service
// store and notifier interfaces for tests.  They honour the same error
// contract as the MySQL repositories.
package servicetest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/hostel-buddy/internal/model"
	"github.com/iliyamo/hostel-buddy/internal/repository"
)

// Users is a mutex-guarded UserStore keyed by id with the same unique
// constraints as the users table.
type Users struct {
	mu       sync.Mutex
	byID     map[string]model.User
	attempts map[string]int

	// Err, when set, is returned by every call.
	Err error
}

func NewUsers() *Users {
	return &Users{byID: make(map[string]model.User), attempts: make(map[string]int)}
}

// Len reports how many users are stored.
func (s *Users) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Users) clash(u model.User) error {
	for id, o := range s.byID {
		if id == u.ID {
			continue
		}
		switch {
		case o.Email == u.Email:
			return &repository.DuplicateError{Field: repository.FieldEmail}
		case u.Contact != "" && o.Contact == u.Contact:
			return &repository.DuplicateError{Field: repository.FieldContact}
		case u.Attrs.Student != nil && o.Attrs.Student != nil && o.Attrs.Student.RollNumber == u.Attrs.Student.RollNumber:
			return &repository.DuplicateError{Field: repository.FieldRollNumber}
		case u.Attrs.Warden != nil && o.Attrs.Warden != nil && o.Attrs.Warden.StaffID == u.Attrs.Warden.StaffID:
			return &repository.DuplicateError{Field: repository.FieldStaffID}
		}
	}
	return nil
}

func (s *Users) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.byID[u.ID]; ok {
		return errors.New("duplicate primary key")
	}
	if err := s.clash(u); err != nil {
		return err
	}
	s.byID[u.ID] = u
	return nil
}

func (s *Users) GetByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.User{}, s.Err
	}
	u, ok := s.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *Users) find(match func(model.User) bool) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.User{}, s.Err
	}
	for _, u := range s.byID {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	return s.find(func(u model.User) bool { return u.Email == email })
}

func (s *Users) GetByContact(_ context.Context, contact string) (model.User, error) {
	if contact == "" {
		return model.User{}, repository.ErrNotFound
	}
	return s.find(func(u model.User) bool { return u.Contact == contact })
}

func (s *Users) UpdateProfile(_ context.Context, id string, p model.ProfileUpdate, at time.Time) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.User{}, s.Err
	}
	u, ok := s.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Contact != nil {
		u.Contact = *p.Contact
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
	if p.ImageURL != nil {
		u.ImageURL = *p.ImageURL
	}
	if err := s.clash(u); err != nil {
		return model.User{}, err
	}
	u.UpdatedAt = at
	s.byID[id] = u
	return u, nil
}

func (s *Users) SetOTP(_ context.Context, id, codeHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.OTPCodeHash = codeHash
	u.OTPExpiresAt = &exp
	s.byID[id] = u
	s.attempts[id] = 0
	return nil
}

func (s *Users) ResetPasswordWithOTP(_ context.Context, id, codeHash, passwordHash string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	u, ok := s.byID[id]
	if !ok || u.OTPCodeHash == "" || u.OTPCodeHash != codeHash || u.OTPExpiresAt == nil || !u.OTPExpiresAt.After(now) {
		return false, nil
	}
	u.PasswordHash = passwordHash
	u.OTPCodeHash = ""
	u.OTPExpiresAt = nil
	u.UpdatedAt = now
	s.byID[id] = u
	s.attempts[id] = 0
	return true, nil
}

func (s *Users) RecordOTPFailure(_ context.Context, id string, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.byID[id]
	if !ok || u.OTPCodeHash == "" {
		return nil
	}
	s.attempts[id]++
	if s.attempts[id] >= limit {
		u.OTPCodeHash = ""
		u.OTPExpiresAt = nil
		s.byID[id] = u
	}
	return nil
}

// Complaints is an in-memory ComplaintStore.  ListAll joins owners from
// the Users it was built with.
type Complaints struct {
	mu    sync.Mutex
	byID  map[string]model.Complaint
	order []string
	users *Users

	// Err, when set, is returned by every call.
	Err error
	// BeforeUpdate, when set, runs inside UpdateStatus before the status
	// check, to simulate a concurrent writer.
	BeforeUpdate func(c *model.Complaint)
}

func NewComplaints(users *Users) *Complaints {
	return &Complaints{byID: make(map[string]model.Complaint), users: users}
}

func (s *Complaints) Create(_ context.Context, c model.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.byID[c.ID] = c
	s.order = append(s.order, c.ID)
	return nil
}

func (s *Complaints) GetByID(_ context.Context, id string) (model.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Complaint{}, s.Err
	}
	c, ok := s.byID[id]
	if !ok {
		return model.Complaint{}, repository.ErrNotFound
	}
	return c, nil
}

// newestFirst orders by creation time, then by insertion order.
func (s *Complaints) newestFirst() []model.Complaint {
	out := make([]model.Complaint, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.byID[s.order[i]])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Complaints) ListByOwner(_ context.Context, ownerID string) ([]model.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]model.Complaint, 0)
	for _, c := range s.newestFirst() {
		if c.SubmittedBy == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Complaints) ListAll(ctx context.Context) ([]model.ComplaintWithOwner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]model.ComplaintWithOwner, 0, len(s.order))
	for _, c := range s.newestFirst() {
		row := model.ComplaintWithOwner{Complaint: c, Owner: model.ComplaintOwner{ID: c.SubmittedBy}}
		if s.users != nil {
			if u, err := s.users.GetByID(ctx, c.SubmittedBy); err == nil {
				row.Owner.FullName, row.Owner.Email = u.FullName, u.Email
				if u.Attrs.Student != nil {
					row.Owner.RollNumber = u.Attrs.Student.RollNumber
				}
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Complaints) UpdateStatus(_ context.Context, id string, ch model.StatusChange) (model.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Complaint{}, s.Err
	}
	c, ok := s.byID[id]
	if !ok {
		return model.Complaint{}, repository.ErrNotFound
	}
	if s.BeforeUpdate != nil {
		s.BeforeUpdate(&c)
		s.byID[id] = c
	}
	if !model.CanTransition(c.Status, ch.Status) {
		return model.Complaint{}, repository.ErrConflict
	}
	c.Status = ch.Status
	if ch.AssignedStaff != nil {
		c.AssignedStaff = *ch.AssignedStaff
	}
	if ch.ResolutionNotes != nil {
		c.ResolutionNotes = *ch.ResolutionNotes
	}
	c.UpdatedAt = ch.At
	s.byID[id] = c
	return c, nil
}
