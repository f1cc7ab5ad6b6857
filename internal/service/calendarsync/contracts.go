package calendarsync

import (
	"context"

	"github.com/m04kA/AgencyBookingService/internal/domain"
	"github.com/m04kA/AgencyBookingService/internal/integrations/googlecalendar"
)

// BookingRepository интерфейс репозитория заявок
type BookingRepository interface {
	// TryLockLead берет advisory-блокировку заявки до конца текущей транзакции
	TryLockLead(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	SetExternalEventRef(ctx context.Context, id int64, ref *string) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// CalendarClient внешний календарь
// Отсутствующее событие обозначается googlecalendar.ErrEventNotFound
type CalendarClient interface {
	CreateEvent(ctx context.Context, input googlecalendar.EventInput) (string, error)
	GetEvent(ctx context.Context, eventID string) (*googlecalendar.Event, error)
	UpdateEvent(ctx context.Context, eventID string, input googlecalendar.EventInput) error
	DeleteEvent(ctx context.Context, eventID string) error
}

type Metrics interface {
	IncCalendarSync(operation, result string)
	IncCalendarSyncFatal()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
