package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/hostel-buddy/internal/notify"
)

// StartEmailConsumer connects to RabbitMQ, declares the email queue and
// delivers every message through sender.  It runs a reconnect loop with
// exponential backoff and returns only when ctx is cancelled.  Messages
// that cannot be decoded are rejected; messages whose delivery fails are
// republished a bounded number of times and then dropped.
func StartEmailConsumer(ctx context.Context, url string, sender notify.Sender) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("email-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, sender)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("email-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, sender notify.Sender) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Printf("email-consumer: set QoS failed: %v", err)
	}
	if err := declare(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(EmailQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			settle(ctx, ch, d, sender)
		}
	}
}

// outcome is what to do with a delivery after handling it.
type outcome int

const (
	ack outcome = iota
	reject
	redeliver
)

// handle decodes one delivery and sends it.  It never blocks on the broker
// so it can be exercised without one.
func handle(ctx context.Context, d amqp.Delivery, sender notify.Sender) outcome {
	var e notify.Email
	if err := json.Unmarshal(d.Body, &e); err != nil {
		log.Printf("email-consumer: bad json: %v", err)
		return reject
	}
	if e.To == "" {
		log.Printf("email-consumer: message %s has no recipient", d.MessageId)
		return reject
	}
	if err := sender.Send(ctx, e); err != nil {
		n := attempts(d.Headers) + 1
		if n >= maxRedeliveries {
			log.Printf("email-consumer: giving up on %s after %d attempts: %v", d.MessageId, n, err)
			return reject
		}
		log.Printf("email-consumer: send %s failed (attempt %d): %v", d.MessageId, n, err)
		return redeliver
	}
	return ack
}

func settle(ctx context.Context, ch *amqp.Channel, d amqp.Delivery, sender notify.Sender) {
	switch handle(ctx, d, sender) {
	case ack:
		_ = d.Ack(false)
	case reject:
		_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
	case redeliver:
		headers := amqp.Table{}
		for k, v := range d.Headers {
			headers[k] = v
		}
		headers[retryHeader] = int32(attempts(d.Headers) + 1)
		err := ch.PublishWithContext(ctx, "", EmailQueueName, false, false, amqp.Publishing{
			ContentType:  d.ContentType,
			DeliveryMode: amqp.Persistent,
			MessageId:    d.MessageId,
			Timestamp:    time.Now().UTC(),
			Headers:      headers,
			Body:         d.Body,
		})
		if err != nil {
			log.Printf("email-consumer: republish %s failed: %v", d.MessageId, err)
			_ = d.Nack(false, true)
			return
		}
		_ = d.Ack(false)
	}
}

func attempts(h amqp.Table) int {
	switch v := h[retryHeader].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}
