package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/AgencyBookingService/internal/domain"
)

// BookingRepository интерфейс репозитория заявок
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	ListByDate(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	UpdateNotes(ctx context.Context, id int64, notes *string) error
}

// OutboxRepository запись событий в той же транзакции, что и изменение заявки
type OutboxRepository interface {
	Insert(ctx context.Context, leadID int64, eventType string, payload interface{}) (uuid.UUID, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// SlotCacheInvalidator сбрасывает кэш занятых слотов на дату
type SlotCacheInvalidator interface {
	Invalidate(ctx context.Context, date time.Time) error
}

// Notifier будит доставку событий после коммита
type Notifier interface {
	Notify()
}

type Metrics interface {
	IncStatusTransition(from, to string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
