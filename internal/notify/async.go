package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

// asyncSendTimeout bounds one background delivery, retries included.
const asyncSendTimeout = time.Minute

// Async hands each message to Sender on its own goroutine and returns at
// once, so a slow or failing relay never shows in request latency.  Send
// always reports success; delivery errors are logged.  Call Wait before
// exiting to let in-flight messages finish.
type Async struct {
	Sender Sender

	wg sync.WaitGroup
}

func NewAsync(s Sender) *Async { return &Async{Sender: s} }

func (a *Async) Send(ctx context.Context, e Email) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), asyncSendTimeout)
		defer cancel()
		if err := a.Sender.Send(sctx, e); err != nil {
			log.Printf("mail: background delivery to %s failed: %v", e.To, err)
		}
	}()
	return nil
}

// Wait blocks until every message handed to Send has been attempted or
// ctx is done.
func (a *Async) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
