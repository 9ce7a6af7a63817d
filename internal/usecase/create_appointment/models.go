package create_appointment

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Options параметры бронирования из конфигурации
type Options struct {
	Slots      domain.SlotsConfig
	CodeLength int // длина кода подтверждения
	Attempts   int // количество попыток ввода кода
}

// DefaultOptions возвращает параметры по умолчанию
func DefaultOptions() Options {
	return Options{
		Slots:      domain.DefaultSlotsConfig(),
		CodeLength: domain.DefaultCodeLength,
		Attempts:   domain.DefaultConfirmationAttempts,
	}
}

// Request модель запроса на создание записи
type Request struct {
	Name       string    // Имя клиента, как он представился
	Phone      string    // Телефон клиента
	OfferingID int64     // ID услуги мастера
	Start      time.Time // Желаемое время начала
}

// Response модель ответа с созданной записью
type Response struct {
	Appointment domain.AppointmentDetails // Запись без секретного кода
	CodeSent    bool                      // Удалось ли отправить код клиенту
}
