package appointments

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.Appointment, error)
	GetDetailedByID(ctx context.Context, id int64) (*domain.AppointmentDetails, error)
	List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.AppointmentDetails, error)
	SetConfirmed(ctx context.Context, id int64) error
	UpdateAttempts(ctx context.Context, id int64, attempts int) error
	// Delete удаляет интервал записи, сама запись удаляется каскадно
	Delete(ctx context.Context, id int64) error
}

// CustomerRepository интерфейс репозитория клиентов
type CustomerRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier канал доставки кода подтверждения
type Notifier interface {
	SendConfirmationCode(ctx context.Context, phone, code string) error
}

// EventPublisher публикует события жизненного цикла записи
type EventPublisher interface {
	Publish(ctx context.Context, event domain.AppointmentEvent) error
}

// Metrics бизнес-метрики подтверждения
type Metrics interface {
	IncConfirmation(result string)
	IncNotificationFailure(channel string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
