package create_appointment

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_appointment: invalid input data")

	// ErrCustomerBlocked возвращается, когда клиент с этим телефоном заблокирован
	ErrCustomerBlocked = errors.New("create_appointment: user with this phone number has been blocked")

	// ErrOfferingNotFound возвращается, когда услуга мастера не найдена
	ErrOfferingNotFound = errors.New("create_appointment: offering with such id doesn't exist")

	// ErrIncorrectTime возвращается, когда время не совпадает ни с одним слотом сетки
	ErrIncorrectTime = errors.New("create_appointment: this time is incorrect")

	// ErrTimeNotAvailable возвращается, когда слот пересекается с занятым интервалом
	ErrTimeNotAvailable = errors.New("create_appointment: this time is not available now")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_appointment: internal error")
)
