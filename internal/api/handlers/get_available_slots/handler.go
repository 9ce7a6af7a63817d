package get_available_slots

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

const (
	msgInvalidOfferingID = "некорректный ID услуги мастера"
	msgOfferingNotFound  = "услуга мастера не найдена"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/offerings/{offering_id}/slots/
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	offeringID, err := handlers.PathID(r, "offering_id")
	if err != nil {
		h.logger.Warn("GET /offerings/{id}/slots - Invalid offering ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidOfferingID)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailableSlots.Request{OfferingID: offeringID})
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /offerings/{id}/slots - Invalid input: offering_id=%d", offeringID)
			handlers.RespondBadRequest(w, msgInvalidOfferingID)

		case errors.Is(err, getAvailableSlots.ErrOfferingNotFound):
			h.logger.Warn("GET /offerings/{id}/slots - Offering not found: offering_id=%d", offeringID)
			handlers.RespondNotFound(w, msgOfferingNotFound)

		default:
			h.logger.Error("GET /offerings/{id}/slots - Failed to get slots: offering_id=%d, error=%v", offeringID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /offerings/{id}/slots - Slots retrieved: offering_id=%d, count=%d", offeringID, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
