// Package notify composes the emails the backend sends to users and hands
// them to a Sender.  The Sender may deliver immediately over SMTP, push the
// message onto the broker for a background consumer, or just log it.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/iliyamo/hostel-buddy/internal/model"
)

// Email is one outgoing message.  It is also the payload published to the
// notification queue.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// Sender delivers an Email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Notifier turns domain events into emails.
type Notifier struct {
	sender  Sender
	appName string
}

func NewNotifier(sender Sender, appName string) *Notifier {
	if appName == "" {
		appName = "HostelBuddy"
	}
	return &Notifier{sender: sender, appName: appName}
}

// SendOTP mails a password reset code to the user.
func (n *Notifier) SendOTP(ctx context.Context, to model.User, code string, expiresAt time.Time) error {
	mins := int(time.Until(expiresAt).Round(time.Minute) / time.Minute)
	if mins < 1 {
		mins = 1
	}
	text := fmt.Sprintf("Your OTP is: %s. It will expire in %d minutes.", code, mins)
	return n.sender.Send(ctx, Email{
		To:      to.Email,
		Subject: n.appName + " - OTP for Password Reset",
		Text:    text,
		HTML:    paragraph(greeting(to.FullName), text, "If you did not ask to reset your password you can ignore this email."),
	})
}

// ComplaintStatusChanged tells the owner of c that a warden updated it.
func (n *Notifier) ComplaintStatusChanged(ctx context.Context, owner model.User, c model.Complaint) error {
	lines := []string{
		greeting(owner.FullName),
		fmt.Sprintf("Your %s complaint %q is now %s.", c.Category, summary(c.Description), displayStatus(c.Status)),
	}
	if c.AssignedStaff != "" {
		lines = append(lines, "Assigned staff: "+c.AssignedStaff)
	}
	if c.ResolutionNotes != "" {
		lines = append(lines, "Notes: "+c.ResolutionNotes)
	}
	return n.sender.Send(ctx, Email{
		To:      owner.Email,
		Subject: fmt.Sprintf("%s - Complaint %s", n.appName, displayStatus(c.Status)),
		Text:    strings.Join(lines, "\n"),
		HTML:    paragraph(lines...),
	})
}

func greeting(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "Hello,"
	}
	return "Hello " + name + ","
}

func displayStatus(s model.ComplaintStatus) string {
	if s == model.StatusInProgress {
		return "In Progress"
	}
	return string(s)
}

// summary shortens a description for a subject line or sentence.
func summary(desc string) string {
	const maxLen = 60
	r := []rune(desc)
	if len(r) <= maxLen {
		return desc
	}
	return string(r[:maxLen]) + "..."
}

func paragraph(lines ...string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(l))
		b.WriteString("</p>")
	}
	return b.String()
}
