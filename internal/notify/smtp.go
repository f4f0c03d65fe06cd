package notify

import (
	"context"
	"log"
	"time"

	"github.com/avast/retry-go"
	"gopkg.in/gomail.v2"

	"github.com/iliyamo/hostel-buddy/internal/config"
)

const (
	maxSendAttempts = 3
	initialDelay    = 1 * time.Second
	maxDelay        = 30 * time.Second
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers mail through an SMTP relay, retrying transient
// failures with exponential backoff.
type SMTPSender struct {
	from   string
	dialer dialer

	// Attempts and Delay tune the retry loop; zero values use the defaults.
	Attempts uint
	Delay    time.Duration
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *SMTPSender) Send(ctx context.Context, e Email) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", e.To)
	m.SetHeader("Subject", e.Subject)
	m.SetBody("text/plain", e.Text)
	if e.HTML != "" {
		m.AddAlternative("text/html", e.HTML)
	}

	attempts, delay := s.Attempts, s.Delay
	if attempts == 0 {
		attempts = maxSendAttempts
	}
	if delay == 0 {
		delay = initialDelay
	}
	return retry.Do(
		func() error {
			return s.dialer.DialAndSend(m)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.MaxDelay(maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("smtp: retry %d sending to %s: %v", n+1, e.To, err)
		}),
	)
}

// LogSender records mail in the process log instead of delivering it.  It
// is used when no SMTP relay is configured.  Bodies carry reset codes, so
// only the envelope is logged.
type LogSender struct{}

func (LogSender) Send(_ context.Context, e Email) error {
	log.Printf("mail: to=%s subject=%q body=<%d bytes withheld>", e.To, e.Subject, len(e.Text))
	return nil
}
