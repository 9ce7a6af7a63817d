package create_appointment

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	createAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDatetime    = "некорректный формат datetime, ожидается ISO-8601"
	msgInvalidInput       = "некорректные данные записи"
	msgCustomerBlocked    = "пользователь с этим номером телефона заблокирован"
	msgOfferingNotFound   = "услуга мастера не найдена"
	msgIncorrectTime      = "выбранное время некорректно"
	msgTimeNotAvailable   = "выбранное время недоступно"
)

type Handler struct {
	useCase  CreateAppointmentUseCase
	location *time.Location
	logger   Logger
}

func NewHandler(useCase CreateAppointmentUseCase, location *time.Location, logger Logger) *Handler {
	return &Handler{
		useCase:  useCase,
		location: location,
		logger:   logger,
	}
}

// Handle POST /api/v1/appointments/
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(h.location)
	if err != nil {
		h.logger.Warn("POST /appointments - Invalid datetime: %q", req.Datetime)
		handlers.RespondBadRequest(w, msgInvalidDatetime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		// Недоступное время и неизвестная услуга - это ошибки ввода, клиент выбирает заново
		switch {
		case errors.Is(err, createAppointment.ErrInvalidInput):
			h.logger.Warn("POST /appointments - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, createAppointment.ErrCustomerBlocked):
			h.logger.Warn("POST /appointments - Customer blocked: offering_id=%d", req.OfferingID)
			handlers.RespondForbidden(w, msgCustomerBlocked)

		case errors.Is(err, createAppointment.ErrOfferingNotFound):
			h.logger.Warn("POST /appointments - Offering not found: offering_id=%d", req.OfferingID)
			handlers.RespondBadRequest(w, msgOfferingNotFound)

		case errors.Is(err, createAppointment.ErrIncorrectTime):
			h.logger.Warn("POST /appointments - Incorrect time: offering_id=%d, datetime=%s", req.OfferingID, req.Datetime)
			handlers.RespondBadRequest(w, msgIncorrectTime)

		case errors.Is(err, createAppointment.ErrTimeNotAvailable):
			h.logger.Warn("POST /appointments - Time not available: offering_id=%d, datetime=%s", req.OfferingID, req.Datetime)
			handlers.RespondBadRequest(w, msgTimeNotAvailable)

		default:
			h.logger.Error("POST /appointments - Failed to create appointment: offering_id=%d, error=%v", req.OfferingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /appointments - Appointment created: appointment_id=%d, offering_id=%d, code_sent=%t",
		result.Appointment.ID, req.OfferingID, result.CodeSent)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
