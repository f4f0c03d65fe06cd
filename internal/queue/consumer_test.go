package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hostel-buddy/internal/notify"
)

type stubSender struct {
	err  error
	sent []notify.Email
}

func (s *stubSender) Send(_ context.Context, e notify.Email) error {
	s.sent = append(s.sent, e)
	return s.err
}

func delivery(t *testing.T, e notify.Email, headers amqp.Table) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(e)
	require.NoError(t, err)
	return amqp.Delivery{MessageId: "m1", Body: body, Headers: headers}
}

func TestHandleDeliversEmail(t *testing.T) {
	s := &stubSender{}
	e := notify.Email{To: "a@x.com", Subject: "OTP", Text: "123456"}

	assert.Equal(t, ack, handle(context.Background(), delivery(t, e, nil), s))
	require.Len(t, s.sent, 1)
	assert.Equal(t, e, s.sent[0])
}

func TestHandleRejectsMalformed(t *testing.T) {
	s := &stubSender{}
	assert.Equal(t, reject, handle(context.Background(), amqp.Delivery{Body: []byte("{")}, s))
	assert.Equal(t, reject, handle(context.Background(), delivery(t, notify.Email{Subject: "no one"}, nil), s))
	assert.Empty(t, s.sent)
}

func TestHandleRedeliversUntilLimit(t *testing.T) {
	s := &stubSender{err: errors.New("smtp down")}
	e := notify.Email{To: "a@x.com"}

	assert.Equal(t, redeliver, handle(context.Background(), delivery(t, e, nil), s))
	assert.Equal(t, redeliver, handle(context.Background(), delivery(t, e, amqp.Table{retryHeader: int32(1)}), s))
	assert.Equal(t, reject, handle(context.Background(), delivery(t, e, amqp.Table{retryHeader: int32(2)}), s))
}

func TestAttemptsHeader(t *testing.T) {
	assert.Equal(t, 0, attempts(nil))
	assert.Equal(t, 2, attempts(amqp.Table{retryHeader: int64(2)}))
	assert.Equal(t, 0, attempts(amqp.Table{retryHeader: "x"}))
}
