package domain

import "fmt"

// transitions допустимые переходы статусов
// confirmed -> pending не поддерживается: подтвержденную встречу можно только отменить
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: {StatusPending},
}

// CanTransition проверяет, допустим ли переход from -> to
// Переход в тот же статус считается допустимым no-op
func CanTransition(from, to BookingStatus) bool {
	if from == to {
		return true
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition возвращает ErrInvalidTransition для недопустимого перехода
func ValidateTransition(from, to BookingStatus) error {
	if _, err := ParseBookingStatus(string(to)); err != nil {
		return err
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
