package events

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrMarshal возвращается при ошибке сериализации события
	ErrMarshal = errors.New("events: failed to marshal event")

	// ErrPublish возвращается, когда брокер не принял событие
	ErrPublish = errors.New("events: failed to publish event")
)

// Event тело сообщения в топике событий
type Event struct {
	Type          string     `json:"type"`
	AppointmentID int64      `json:"appointment_id"`
	OfferingID    int64      `json:"offering_id,omitempty"`
	MasterID      int64      `json:"master_id,omitempty"`
	Start         *time.Time `json:"start,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// FromDomainEvent конвертирует domain событие в DTO
func FromDomainEvent(e domain.AppointmentEvent) Event {
	event := Event{
		Type:          string(e.Type),
		AppointmentID: e.AppointmentID,
		OfferingID:    e.OfferingID,
		MasterID:      e.MasterID,
		Reason:        e.Reason,
		OccurredAt:    e.OccurredAt.UTC(),
	}
	if !e.Start.IsZero() {
		start := e.Start
		event.Start = &start
	}
	return event
}
