package get_available_slots

import (
	"time"

	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

// FromUseCaseResponse конвертирует слоты в список RFC3339 строк
func FromUseCaseResponse(resp *getAvailableSlots.Response) []string {
	slots := make([]string, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		slots = append(slots, s.Format(time.RFC3339))
	}
	return slots
}
