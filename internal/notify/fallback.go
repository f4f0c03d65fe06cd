package notify

import (
	"context"
	"log"
)

// Fallback sends through Primary and, when that fails, through Secondary.
// It lets the app deliver directly over SMTP while the broker is down.
type Fallback struct {
	Primary   Sender
	Secondary Sender
}

func (f Fallback) Send(ctx context.Context, e Email) error {
	err := f.Primary.Send(ctx, e)
	if err == nil || f.Secondary == nil {
		return err
	}
	log.Printf("mail: primary sender failed, using fallback: %v", err)
	return f.Secondary.Send(ctx, e)
}
