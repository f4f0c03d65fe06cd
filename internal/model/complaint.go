package model

import (
	"strings"
	"time"
)

// Category classifies a maintenance complaint.
type Category string

const (
	CategoryElectrical Category = "Electrical"
	CategoryPlumbing   Category = "Plumbing"
	CategoryFurniture  Category = "Furniture"
	CategoryCleaning   Category = "Cleaning"
	CategoryOther      Category = "Other"
)

var categories = []Category{CategoryElectrical, CategoryPlumbing, CategoryFurniture, CategoryCleaning, CategoryOther}

// ParseCategory matches case-insensitively and returns the canonical value.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// ComplaintStatus is a position in the complaint lifecycle.
type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "Pending"
	StatusInProgress ComplaintStatus = "InProgress"
	StatusResolved   ComplaintStatus = "Resolved"
)

// ParseStatus accepts the canonical names case-insensitively and the
// spaced "In Progress" spelling older clients send.
func ParseStatus(s string) (ComplaintStatus, bool) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	switch key {
	case "pending":
		return StatusPending, true
	case "inprogress":
		return StatusInProgress, true
	case "resolved":
		return StatusResolved, true
	}
	return "", false
}

// transitions lists, per target status, the statuses it may be reached from.
// Resolved is terminal and nothing moves back to Pending.
var transitions = map[ComplaintStatus][]ComplaintStatus{
	StatusPending:    {StatusPending},
	StatusInProgress: {StatusPending, StatusInProgress},
	StatusResolved:   {StatusPending, StatusInProgress},
}

// AllowedFrom returns the source statuses from which to can be entered.
func AllowedFrom(to ComplaintStatus) []ComplaintStatus {
	return append([]ComplaintStatus(nil), transitions[to]...)
}

// CanTransition reports whether a complaint in status from may move to to.
func CanTransition(from, to ComplaintStatus) bool {
	for _, s := range transitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// MaxDescriptionLen is counted in characters, not bytes.
const MaxDescriptionLen = 500

// Complaint mirrors the complaints table.
type Complaint struct {
	ID              string          `json:"id"`
	Category        Category        `json:"category"`
	Description     string          `json:"description"`
	ImageURL        string          `json:"imageUrl"`
	Status          ComplaintStatus `json:"status"`
	SubmittedBy     string          `json:"submittedBy"`
	AssignedStaff   string          `json:"assignedStaff,omitempty"`
	ResolutionNotes string          `json:"resolutionNotes,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ComplaintOwner is the display-only projection of the submitting user
// joined into warden listings.
type ComplaintOwner struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	RollNumber string `json:"rollNumber,omitempty"`
}

// ComplaintWithOwner is one row of the warden listing.
type ComplaintWithOwner struct {
	Complaint
	Owner ComplaintOwner `json:"owner"`
}

// StatusChange is what a warden writes on a complaint.  Nil optional fields
// keep their stored value.
type StatusChange struct {
	Status          ComplaintStatus
	AssignedStaff   *string
	ResolutionNotes *string
	At              time.Time
}
