package confirm_appointment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
)

const (
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidAppointmentID = "некорректный ID записи"
	msgCodeRequired         = "не указан код подтверждения"
	msgAppointmentNotFound  = "запись не найдена"
	msgCustomerBlocked      = "пользователь с этим номером телефона заблокирован"
	msgIncorrectCode        = "неверный код подтверждения"
	msgAppointmentDeleted   = "неверный код подтверждения, попытки исчерпаны, запись удалена"
)

type Handler struct {
	service AppointmentService
	logger  Logger
}

func NewHandler(service AppointmentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments/{id}/confirm/
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		h.logger.Warn("POST /appointments/{id}/confirm - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	var req ConfirmRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments/{id}/confirm - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	err = h.service.Confirm(r.Context(), id, req.ConfirmationCode)
	if err != nil {
		var incorrect *domain.IncorrectCodeError
		switch {
		case errors.As(err, &incorrect):
			h.logger.Warn("POST /appointments/{id}/confirm - Incorrect code: appointment_id=%d, attempts_left=%d, deleted=%t",
				id, incorrect.AttemptsLeft, incorrect.Deleted)
			if incorrect.Deleted {
				handlers.RespondJSON(w, http.StatusGone, IncorrectCodeResponse{Error: msgAppointmentDeleted, Deleted: true})
				return
			}
			handlers.RespondJSON(w, http.StatusBadRequest, IncorrectCodeResponse{
				Error:        msgIncorrectCode,
				AttemptsLeft: incorrect.AttemptsLeft,
			})

		case errors.Is(err, appointments.ErrInvalidInput):
			h.logger.Warn("POST /appointments/{id}/confirm - Empty code: appointment_id=%d", id)
			handlers.RespondBadRequest(w, msgCodeRequired)

		case errors.Is(err, appointments.ErrAppointmentNotFound):
			h.logger.Warn("POST /appointments/{id}/confirm - Appointment not found: appointment_id=%d", id)
			handlers.RespondNotFound(w, msgAppointmentNotFound)

		case errors.Is(err, appointments.ErrCustomerBlocked):
			h.logger.Warn("POST /appointments/{id}/confirm - Customer blocked: appointment_id=%d", id)
			handlers.RespondForbidden(w, msgCustomerBlocked)

		default:
			h.logger.Error("POST /appointments/{id}/confirm - Failed to confirm: appointment_id=%d, error=%v", id, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /appointments/{id}/confirm - Appointment confirmed: appointment_id=%d", id)
	handlers.RespondJSON(w, http.StatusOK, handlers.OK)
}
