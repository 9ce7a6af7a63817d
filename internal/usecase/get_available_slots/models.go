package get_available_slots

import "time"

// Request модель запроса на получение свободных слотов
type Request struct {
	OfferingID int64 // ID услуги мастера
}

// Response модель ответа со списком свободных слотов
type Response struct {
	OfferingID      int64       // ID услуги мастера
	MasterID        int64       // ID мастера
	DurationMinutes int         // Длительность услуги
	Slots           []time.Time // Свободные времена начала по возрастанию
}
