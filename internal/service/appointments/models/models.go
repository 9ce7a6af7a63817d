package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrInvalidDate возвращается при некорректной дате фильтра
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
)

// Request модели

// ListRequest фильтры списка записей
type ListRequest struct {
	Date      *string `json:"date,omitempty"`      // "2025-10-15" (опционально)
	Confirmed *bool   `json:"confirmed,omitempty"` // статус подтверждения (опционально)
}

// ToDomainFilter конвертирует request в domain фильтр.
// Дата интерпретируется как календарный день в loc.
func (r *ListRequest) ToDomainFilter(loc *time.Location) (domain.AppointmentsFilter, error) {
	filter := domain.AppointmentsFilter{Confirmed: r.Confirmed}

	if r.Date != nil {
		if loc == nil {
			loc = time.Local
		}
		day, err := time.ParseInLocation(domain.DateFormat, *r.Date, loc)
		if err != nil {
			return filter, ErrInvalidDate
		}
		filter.Date = &day
	}

	return filter, nil
}

// Response модели

// CustomerResponse клиент записи
type CustomerResponse struct {
	ID     int64  `json:"id"`
	Phone  string `json:"phone"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// NamedResponse мастер или услуга
type NamedResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// OfferingResponse услуга мастера
type OfferingResponse struct {
	ID              int64         `json:"id"`
	Price           float64       `json:"price"`
	DurationMinutes int           `json:"duration_minutes"`
	Master          NamedResponse `json:"master"`
	Service         NamedResponse `json:"service"`
}

// SlotResponse занятый интервал мастера
type SlotResponse struct {
	ID    int64     `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AppointmentResponse ответ с данными записи, секретный код не отдаётся
type AppointmentResponse struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	Confirmed bool             `json:"confirmed"`
	Attempts  int              `json:"attempts"`
	CreatedAt time.Time        `json:"created_at"`
	Customer  CustomerResponse `json:"customer"`
	Offering  OfferingResponse `json:"offering"`
	Slot      SlotResponse     `json:"slot"`
}

// ConfirmationCodeResponse ответ с кодом подтверждения
type ConfirmationCodeResponse struct {
	ConfirmationCode string `json:"confirmation_code"`
	CodeSent         bool   `json:"-"`
}

// Методы конвертации

// FromDomainAppointment конвертирует domain модель в DTO
func FromDomainAppointment(a *domain.AppointmentDetails) *AppointmentResponse {
	if a == nil {
		return nil
	}

	return &AppointmentResponse{
		ID:        a.ID,
		Name:      a.Name,
		Confirmed: a.Confirmed,
		Attempts:  a.Attempts,
		CreatedAt: a.CreatedAt,
		Customer: CustomerResponse{
			ID:     a.Customer.ID,
			Phone:  a.Customer.Phone,
			Name:   a.Customer.Name,
			Status: string(a.Customer.Status),
		},
		Offering: OfferingResponse{
			ID:              a.Offering.ID,
			Price:           a.Offering.Price,
			DurationMinutes: a.Offering.DurationMinutes,
			Master:          NamedResponse{ID: a.Offering.MasterID, Name: a.Offering.Master.Name},
			Service:         NamedResponse{ID: a.Offering.ServiceID, Name: a.Offering.Service.Name},
		},
		Slot: SlotResponse{
			ID:    a.Slot.ID,
			Start: a.Slot.Start,
			End:   a.Slot.End,
		},
	}
}

// FromDomainAppointmentList конвертирует список domain моделей в DTO
func FromDomainAppointmentList(appointments []*domain.AppointmentDetails) []AppointmentResponse {
	resp := make([]AppointmentResponse, 0, len(appointments))
	for _, a := range appointments {
		if item := FromDomainAppointment(a); item != nil {
			resp = append(resp, *item)
		}
	}
	return resp
}
