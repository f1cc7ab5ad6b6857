package domain

import (
	"fmt"
	"time"

	"github.com/m04kA/AgencyBookingService/pkg/types"
)

// BookingStatus статус заявки на встречу
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// ParseBookingStatus конвертирует строку в статус, неизвестные значения отклоняются
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(s) {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return BookingStatus(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// ClaimsSlot возвращает true, если статус занимает слот (pending/confirmed)
func (s BookingStatus) ClaimsSlot() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s BookingStatus) String() string {
	return string(s)
}

// Booking заявка (lead) на встречу в конкретный слот
type Booking struct {
	ID          int64
	Name        string
	Phone       string // только цифры
	MeetingDate time.Time
	MeetingTime types.TimeString
	Status      BookingStatus
	Notes       *string

	// ExternalEventRef ID события во внешнем календаре
	// Выставляется только синхронизацией календаря
	ExternalEventRef *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive возвращает true, если бронирование занимает слот
func (b *Booking) IsActive() bool {
	return b.Status.ClaimsSlot()
}

// IsConfirmed возвращает true для подтвержденных встреч
func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

// HasExternalEvent возвращает true, если бронирование связано с событием календаря
func (b *Booking) HasExternalEvent() bool {
	return b.ExternalEventRef != nil && *b.ExternalEventRef != ""
}

// Slot возвращает пару (дата, время), которую занимает бронирование
func (b *Booking) Slot() Slot {
	return Slot{Date: DateOnly(b.MeetingDate), Time: b.MeetingTime}
}

// BookingsFilter фильтр для выборки бронирований на дату
type BookingsFilter struct {
	Date             time.Time
	IncludeCancelled bool
}
