package create_booking

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных контактных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInvalidDate возвращается, когда дата недоступна для записи (выходной или прошлое)
	ErrInvalidDate = errors.New("create_booking: invalid booking date")

	// ErrInvalidTimeSlot возвращается, когда время не входит в сетку слотов
	ErrInvalidTimeSlot = errors.New("create_booking: invalid time slot")

	// ErrSlotAlreadyBooked возвращается, когда слот уже занят неотмененной заявкой
	ErrSlotAlreadyBooked = errors.New("create_booking: slot already booked")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
