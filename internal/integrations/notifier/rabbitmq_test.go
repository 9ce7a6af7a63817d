package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	key       string
	msg       amqp.Publishing
	deadline  bool
	err       error
	closed    bool
	published int
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	_, c.deadline = ctx.Deadline()
	c.key = key
	c.msg = msg
	c.published++
	return c.err
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type recordingLogger struct {
	debug []string
}

func (l *recordingLogger) Debug(format string, v ...interface{}) { l.debug = append(l.debug, format) }
func (l *recordingLogger) Info(string, ...interface{})           {}
func (l *recordingLogger) Warn(string, ...interface{})           {}
func (l *recordingLogger) Error(string, ...interface{})          {}

func TestRabbitMQ_SendConfirmationCode(t *testing.T) {
	ch := &fakeChannel{}
	r := NewRabbitMQ(ch, "confirmation_codes", time.Second, &recordingLogger{})

	require.NoError(t, r.SendConfirmationCode(context.Background(), "+79990001122", "01234"))

	assert.Equal(t, "confirmation_codes", ch.key)
	assert.True(t, ch.deadline)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var msg Message
	require.NoError(t, json.Unmarshal(ch.msg.Body, &msg))
	assert.Equal(t, "confirmation", msg.Message)
	assert.Equal(t, "+79990001122", msg.Detail.Phone)
	assert.Equal(t, "01234", msg.Detail.Code)
}

func TestRabbitMQ_PublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	r := NewRabbitMQ(ch, "confirmation_codes", 0, &recordingLogger{})

	err := r.SendConfirmationCode(context.Background(), "+79990001122", "01234")

	assert.ErrorIs(t, err, ErrPublish)
	assert.False(t, ch.deadline)
}

func TestRabbitMQ_Close(t *testing.T) {
	ch := &fakeChannel{}
	r := NewRabbitMQ(ch, "q", 0, &recordingLogger{})

	require.NoError(t, r.Close())
	assert.True(t, ch.closed)
}

func TestLogNotifier(t *testing.T) {
	log := &recordingLogger{}
	n := NewLogNotifier(log)

	require.NoError(t, n.SendConfirmationCode(context.Background(), "+79990001122", "01234"))
	assert.Len(t, log.debug, 1)
	assert.NoError(t, n.Close())
}
