package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/AgencyBookingService/internal/domain"
	"github.com/m04kA/AgencyBookingService/pkg/types"
)

// BookingRepository интерфейс репозитория заявок
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	ExistsActiveBySlot(ctx context.Context, date time.Time, meetingTime types.TimeString) (bool, error)
}

// SlotCacheInvalidator сбрасывает кэш занятых слотов на дату
type SlotCacheInvalidator interface {
	Invalidate(ctx context.Context, date time.Time) error
}

type Metrics interface {
	IncBookingCreated(result string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
