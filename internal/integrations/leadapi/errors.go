package leadapi

import "errors"

var (
	// ErrSlotAlreadyBooked возвращается, когда выбранный слот уже занят другой заявкой
	ErrSlotAlreadyBooked = errors.New("leadapi client: slot already booked")

	// ErrValidation возвращается, когда API отклонило данные заявки
	ErrValidation = errors.New("leadapi client: validation failed")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("leadapi client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("leadapi client: invalid response")
)
