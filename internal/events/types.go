package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/AgencyBookingService/internal/domain"
)

// Типы событий по заявкам
const (
	TypeStatusChanged   = "lead.status_changed"
	TypeResyncRequested = "lead.resync_requested"
)

// ErrFatal ошибка подписчика, повтор которой не поможет
// Событие с такой ошибкой снимается с доставки и требует ручного разбора
var ErrFatal = errors.New("events: fatal delivery error")

// StatusChange полезная нагрузка outbox-записи
type StatusChange struct {
	OldStatus  domain.BookingStatus `json:"old_status"`
	NewStatus  domain.BookingStatus `json:"new_status"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// Event событие по заявке, передаваемое подписчикам
// Несколько записей outbox по одной заявке схлопываются в одно событие:
// подписчики всегда читают актуальное состояние заявки, а не историю переходов
type Event struct {
	LeadID    int64
	Type      string
	OldStatus domain.BookingStatus
	NewStatus domain.BookingStatus
	Attempts  int

	// EntryIDs записи outbox, вошедшие в событие
	EntryIDs []uuid.UUID
}

// Listener подписчик на события заявок
type Listener interface {
	HandleLeadEvent(ctx context.Context, event Event) error
}

// ListenerFunc адаптер функции к Listener
type ListenerFunc func(ctx context.Context, event Event) error

func (f ListenerFunc) HandleLeadEvent(ctx context.Context, event Event) error {
	return f(ctx, event)
}
