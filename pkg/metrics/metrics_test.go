package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBusinessCounters(t *testing.T) {
	m := NewWithRegisterer("smc-appointment-service", prometheus.NewRegistry())

	m.IncReservation("created")
	m.IncReservation("created")
	m.IncConfirmation("incorrect_code")
	m.IncNotificationFailure("rabbitmq")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReservationsTotal.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfirmationsTotal.WithLabelValues("incorrect_code")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationFailuresTotal.WithLabelValues("rabbitmq")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncReservation("created")
		m.IncConfirmation("confirmed")
		m.IncNotificationFailure("kafka")
	})
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "smc_appointment_service", sanitize("SMC-Appointment.Service"))
}
