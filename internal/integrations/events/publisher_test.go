package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisher(w, time.Second)
	start := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), domain.AppointmentEvent{
		Type:          domain.EventAppointmentCreated,
		AppointmentID: 21,
		OfferingID:    4,
		MasterID:      2,
		Start:         start,
		OccurredAt:    start.Add(-time.Hour),
	})

	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "21", string(msg.Key))
	assert.Equal(t, "appointment.created", header(msg, headerEventType))
	assert.NotEmpty(t, header(msg, headerEventID))

	var body Event
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, int64(21), body.AppointmentID)
	assert.Equal(t, int64(2), body.MasterID)
	require.NotNil(t, body.Start)
	assert.True(t, start.Equal(*body.Start))
}

func TestPublisher_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	w := &fakeWriter{}
	require.NoError(t, NewPublisher(w, 0).Publish(ctx, domain.AppointmentEvent{Type: domain.EventAppointmentDeleted, AppointmentID: 1}))

	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", header(w.msgs[0], "traceparent"))
}

func TestPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}

	err := NewPublisher(w, 0).Publish(context.Background(), domain.AppointmentEvent{Type: domain.EventAppointmentConfirmed, AppointmentID: 1})

	assert.ErrorIs(t, err, ErrPublish)
}

func TestFromDomainEvent_OmitsZeroStart(t *testing.T) {
	event := FromDomainEvent(domain.AppointmentEvent{Type: domain.EventAppointmentDeleted, AppointmentID: 3, Reason: "admin"})

	assert.Nil(t, event.Start)
	assert.Equal(t, "admin", event.Reason)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), domain.AppointmentEvent{}))
}
