package domain

import (
	"errors"
	"strings"
	"time"
)

// Ограничения бизнес-валидации
const (
	MaxNameLength  = 200
	MaxNotesLength = 2000
	MinPhoneDigits = 10
	MaxPhoneDigits = 15
)

// Форматы даты и времени
const (
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// DefaultMeetingDuration длительность встречи во внешнем календаре
const DefaultMeetingDuration = time.Hour

var (
	// ErrUnknownStatus статус не входит в перечисление
	ErrUnknownStatus = errors.New("domain: unknown booking status")

	// ErrInvalidTransition переход статуса не разрешен
	ErrInvalidTransition = errors.New("domain: invalid status transition")
)

// ActiveStatuses статусы, занимающие слот
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
}

// ActiveStatusStrings ActiveStatuses в виде строк (для SQL-фильтров)
func ActiveStatusStrings() []string {
	result := make([]string, len(ActiveStatuses))
	for i, s := range ActiveStatuses {
		result[i] = string(s)
	}
	return result
}

// NormalizePhone оставляет в телефоне только цифры
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseDate парсит дату в формате YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, strings.TrimSpace(s))
}
