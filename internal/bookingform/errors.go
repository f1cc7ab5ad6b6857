package bookingform

import "errors"

var (
	// ErrDateNotSelectable выходной или прошедший день
	ErrDateNotSelectable = errors.New("bookingform: date is not selectable")

	// ErrNoDateSelected время выбирается только после даты
	ErrNoDateSelected = errors.New("bookingform: no date selected")

	// ErrSlotsLoading занятые слоты выбранной даты еще не загружены
	ErrSlotsLoading = errors.New("bookingform: claimed slots are loading")

	// ErrSlotUnavailable слот занят или не входит в сетку
	ErrSlotUnavailable = errors.New("bookingform: slot is unavailable")

	// ErrInvalidContact некорректные имя или телефон
	ErrInvalidContact = errors.New("bookingform: invalid contact")

	// ErrIncomplete форма заполнена не полностью
	ErrIncomplete = errors.New("bookingform: form is incomplete")

	// ErrSlotTaken слот заняли, пока пользователь заполнял форму
	ErrSlotTaken = errors.New("bookingform: slot already booked")

	// ErrSubmitFailed прочие ошибки отправки, можно повторить
	ErrSubmitFailed = errors.New("bookingform: submit failed")
)
