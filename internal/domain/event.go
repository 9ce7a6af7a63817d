package domain

import "time"

// EventType тип события жизненного цикла записи
type EventType string

const (
	EventAppointmentCreated   EventType = "appointment.created"
	EventAppointmentConfirmed EventType = "appointment.confirmed"
	EventAppointmentDeleted   EventType = "appointment.deleted"
)

// AppointmentEvent событие для внешних потребителей (админ-панель, аналитика).
// Секретный код в событие не попадает.
type AppointmentEvent struct {
	Type          EventType
	AppointmentID int64
	OfferingID    int64
	MasterID      int64     // 0, если неизвестен в месте публикации
	Start         time.Time // нулевое, если неизвестно
	Reason        string    // для удаления: admin или attempts_exhausted
	OccurredAt    time.Time
}
