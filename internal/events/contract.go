package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/AgencyBookingService/internal/infra/storage/outbox"
)

type Store interface {
	ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]outbox.Entry, error)
	MarkDelivered(ctx context.Context, ids []uuid.UUID) error
	Reschedule(ctx context.Context, id uuid.UUID, nextAttemptAt time.Time, lastError string) error
	MarkDead(ctx context.Context, id uuid.UUID, lastError string) error
}

type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type Metrics interface {
	IncOutboxDelivery(result string)
}
