package get_claimed_slots

import (
	"context"
	"time"

	"github.com/m04kA/AgencyBookingService/internal/domain"
	"github.com/m04kA/AgencyBookingService/pkg/types"
)

// BookingRepository интерфейс репозитория заявок
type BookingRepository interface {
	ListByDate(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
}

// SlotCache кэш занятых слотов (опционален)
type SlotCache interface {
	Get(ctx context.Context, date time.Time) ([]types.TimeString, bool, error)
	Set(ctx context.Context, date time.Time, claimed []types.TimeString) error
}

type Metrics interface {
	IncAvailabilityDegraded()
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

// RealTimeProvider текущее время в таймзоне площадки
type RealTimeProvider struct {
	Location *time.Location
}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	if p.Location == nil {
		return time.Now()
	}
	return time.Now().In(p.Location)
}
