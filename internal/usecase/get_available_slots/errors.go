package get_available_slots

import "errors"

var (
	// ErrOfferingNotFound возвращается, когда услуга мастера не найдена
	ErrOfferingNotFound = errors.New("get_available_slots: offering not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_available_slots: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_available_slots: internal error")
)
