package create_appointment

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	createAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
)

// ErrInvalidDatetime возвращается, если datetime не удалось разобрать
var ErrInvalidDatetime = errors.New("invalid datetime, expected RFC3339 or YYYY-MM-DDTHH:MM:SS")

// CreateAppointmentRequest HTTP модель запроса на создание записи
type CreateAppointmentRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	OfferingID int64  `json:"offering_id"`
	Datetime   string `json:"datetime"` // "2025-10-15T10:30:00+03:00" или "2025-10-15T10:30:00"
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case.
// Время без зоны читается в loc.
func (r *CreateAppointmentRequest) ToUseCaseRequest(loc *time.Location) (*createAppointment.Request, error) {
	start, err := parseDatetime(r.Datetime, loc)
	if err != nil {
		return nil, err
	}

	return &createAppointment.Request{
		Name:       r.Name,
		Phone:      r.Phone,
		OfferingID: r.OfferingID,
		Start:      start,
	}, nil
}

func parseDatetime(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(domain.LocalDateTimeFormat, raw, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDatetime
	}
	return t, nil
}

// CreateAppointmentResponse созданная запись и признак отправки кода
type CreateAppointmentResponse struct {
	models.AppointmentResponse
	CodeSent bool `json:"code_sent"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP модель
func FromUseCaseResponse(resp *createAppointment.Response) CreateAppointmentResponse {
	return CreateAppointmentResponse{
		AppointmentResponse: *models.FromDomainAppointment(&resp.Appointment),
		CodeSent:            resp.CodeSent,
	}
}
