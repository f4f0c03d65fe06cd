package servicetest

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/hostel-buddy/internal/model"
)

// SentOTP is one recorded SendOTP call.
type SentOTP struct {
	UserID    string
	Email     string
	Code      string
	ExpiresAt time.Time
}

// Notifier records what it was asked to send.  Err makes every call fail
// after recording.
type Notifier struct {
	mu            sync.Mutex
	OTPs          []SentOTP
	StatusChanges []model.Complaint
	Err           error
}

func (n *Notifier) SendOTP(_ context.Context, to model.User, code string, exp time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.OTPs = append(n.OTPs, SentOTP{UserID: to.ID, Email: to.Email, Code: code, ExpiresAt: exp})
	return n.Err
}

func (n *Notifier) ComplaintStatusChanged(_ context.Context, _ model.User, c model.Complaint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.StatusChanges = append(n.StatusChanges, c)
	return n.Err
}

// LastOTP returns the most recent code sent, or "" when none was.
func (n *Notifier) LastOTP() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.OTPs) == 0 {
		return ""
	}
	return n.OTPs[len(n.OTPs)-1].Code
}
