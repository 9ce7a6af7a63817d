package create_appointment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// CustomerRepository интерфейс репозитория клиентов
type CustomerRepository interface {
	GetByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	Create(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
}

// OfferingRepository интерфейс репозитория услуг мастеров
type OfferingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Offering, error)
}

// OccupationRepository интерфейс репозитория занятости мастеров
type OccupationRepository interface {
	// LockMaster блокирует строку мастера до конца транзакции
	LockMaster(ctx context.Context, masterID int64) error
	GetByMasterID(ctx context.Context, masterID int64, from time.Time) ([]*domain.Occupation, error)
	Create(ctx context.Context, occupation *domain.Occupation) (*domain.Occupation, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *domain.Appointment) (*domain.Appointment, error)
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

// Metrics бизнес-метрики бронирования
type Metrics interface {
	IncReservation(result string)
	IncNotificationFailure(channel string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
