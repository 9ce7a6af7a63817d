package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// OfferingRepository интерфейс репозитория услуг мастеров
type OfferingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Offering, error)
}

// OccupationRepository интерфейс репозитория занятости мастеров
type OccupationRepository interface {
	// GetByMasterID получает интервалы мастера, заканчивающиеся позже from
	GetByMasterID(ctx context.Context, masterID int64, from time.Time) ([]*domain.Occupation, error)
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
