package bookingform

import (
	"context"
	"time"

	"github.com/m04kA/AgencyBookingService/internal/integrations/leadapi"
	"github.com/m04kA/AgencyBookingService/pkg/types"
)

// AvailabilityAPI источник занятых слотов
type AvailabilityAPI interface {
	GetClaimedSlots(ctx context.Context, date time.Time) ([]types.TimeString, error)
}

// BookingAPI создание заявки. Конфликт слота должен приходить как leadapi.ErrSlotAlreadyBooked
type BookingAPI interface {
	CreateLead(ctx context.Context, in leadapi.CreateLeadRequest) (*leadapi.Lead, error)
}

type TimeProvider interface {
	Now() time.Time
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
}
