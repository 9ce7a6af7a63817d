package whatsapp

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("whatsapp client: internal error")

	// ErrUnavailable возвращается, когда шлюз недоступен
	ErrUnavailable = errors.New("whatsapp client: gateway unavailable")

	// ErrUnauthorized возвращается при неверном токене инстанса
	ErrUnauthorized = errors.New("whatsapp client: unauthorized")

	// ErrInvalidResponse возвращается при некорректном ответе от шлюза
	ErrInvalidResponse = errors.New("whatsapp client: invalid response")
)
