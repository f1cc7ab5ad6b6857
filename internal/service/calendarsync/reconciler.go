package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/m04kA/AgencyBookingService/internal/domain"
	"github.com/m04kA/AgencyBookingService/internal/events"
	bookingRepo "github.com/m04kA/AgencyBookingService/internal/infra/storage/booking"
	"github.com/m04kA/AgencyBookingService/internal/integrations/googlecalendar"
)

const (
	opCreate   = "create"
	opGet      = "get"
	opUpdate   = "update"
	opDelete   = "delete"
	opRecreate = "recreate"

	resultOK       = "ok"
	resultNotFound = "not_found"
	resultError    = "error"
)

var tracer = otel.Tracer("github.com/m04kA/AgencyBookingService/internal/service/calendarsync")

// Action что сделала синхронизация
type Action string

const (
	ActionNone     Action = "none"
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionRelinked Action = "relinked" // событие пропало и создано заново
)

// Reconciler приводит внешний календарь к текущему состоянию заявки
// Читает заявку заново при каждом вызове, поэтому повторы и схлопнутые события безопасны.
// Синхронизация одной заявки выполняется в транзакции под advisory-блокировкой заявки,
// поэтому несколько инстансов не создадут событие дважды
type Reconciler struct {
	bookingRepo BookingRepository
	txManager   TransactionManager
	calendar    CalendarClient
	metrics     Metrics
	logger      Logger
	location    *time.Location
	duration    time.Duration
}

// NewReconciler создает синхронизатор календаря
func NewReconciler(
	bookingRepo BookingRepository,
	txManager TransactionManager,
	calendar CalendarClient,
	metrics Metrics,
	logger Logger,
	location *time.Location,
	duration time.Duration,
) *Reconciler {
	if location == nil {
		location = time.UTC
	}
	if duration <= 0 {
		duration = domain.DefaultMeetingDuration
	}
	return &Reconciler{
		bookingRepo: bookingRepo,
		txManager:   txManager,
		calendar:    calendar,
		metrics:     metrics,
		logger:      logger,
		location:    location,
		duration:    duration,
	}
}

// HandleLeadEvent реализует events.Listener
func (r *Reconciler) HandleLeadEvent(ctx context.Context, event events.Event) error {
	_, err := r.Sync(ctx, event.LeadID)
	return err
}

// Sync синхронизирует событие календаря с заявкой
//
// confirmed: событие должно существовать и совпадать с заявкой (создать, пересоздать или обновить)
// иначе: событие удаляется, ссылка очищается
func (r *Reconciler) Sync(ctx context.Context, leadID int64) (action Action, err error) {
	ctx, span := tracer.Start(ctx, "calendarsync.Sync")
	span.SetAttributes(attribute.Int64("lead.id", leadID))
	defer func() {
		span.SetAttributes(attribute.String("sync.action", string(action)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var (
		booking *domain.Booking
		applied bool // fn завершилась успешно, ошибка Do относится к commit
	)
	err = r.txManager.Do(ctx, func(ctx context.Context) error {
		locked, err := r.bookingRepo.TryLockLead(ctx, leadID)
		if err != nil {
			return fmt.Errorf("%w: lock lead id=%d: %v", ErrTransientSync, leadID, err)
		}
		if !locked {
			return fmt.Errorf("%w: lead id=%d", ErrLeadBusy, leadID)
		}

		booking, err = r.bookingRepo.GetByID(ctx, leadID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				booking = nil
				applied = true
				return nil
			}
			return fmt.Errorf("%w: load lead id=%d: %v", ErrTransientSync, leadID, err)
		}
		span.SetAttributes(attribute.String("lead.status", string(booking.Status)))

		if booking.IsConfirmed() {
			action, err = r.ensureEvent(ctx, booking)
		} else {
			action, err = r.removeEvent(ctx, booking)
		}
		if err == nil {
			applied = true
		}
		return err
	})

	if err != nil && applied {
		err = commitError(leadID, action, err)
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrFatalSyncInconsistency):
			r.metrics.IncCalendarSyncFatal()
			r.logger.Error("ALERT: CalendarSync: lead id=%d: %v", leadID, err)
		case errors.Is(err, ErrLeadBusy):
			r.logger.Info("CalendarSync: lead id=%d is synced by another worker, will retry", leadID)
		default:
			r.logger.Warn("CalendarSync: lead id=%d failed, will retry: %v", leadID, err)
		}
		return action, err
	}

	if booking == nil {
		r.logger.Warn("CalendarSync: lead id=%d not found, nothing to sync", leadID)
		return ActionNone, nil
	}

	if action != ActionNone {
		r.logger.Info("CalendarSync: lead id=%d status=%s action=%s", leadID, booking.Status, action)
	}
	return action, nil
}

// commitError классифицирует ошибку фиксации транзакции после изменения календаря
// Если ссылка на событие менялась, календарь и заявка разошлись
func commitError(leadID int64, action Action, err error) error {
	switch action {
	case ActionCreated, ActionRelinked, ActionDeleted:
		return fmt.Errorf("%w: calendar changed (%s) but reference not committed for lead id=%d: %v",
			ErrFatalSyncInconsistency, action, leadID, err)
	}
	return fmt.Errorf("%w: commit lead id=%d: %v", ErrTransientSync, leadID, err)
}

func (r *Reconciler) ensureEvent(ctx context.Context, booking *domain.Booking) (Action, error) {
	input := BuildEventInput(booking, r.location, r.duration)

	if !booking.HasExternalEvent() {
		return r.createAndLink(ctx, booking, input, opCreate, ActionCreated)
	}

	eventID := *booking.ExternalEventRef

	current, err := r.calendar.GetEvent(ctx, eventID)
	switch {
	case errors.Is(err, googlecalendar.ErrEventNotFound):
		r.metrics.IncCalendarSync(opGet, resultNotFound)
		r.logger.Warn("CalendarSync: event %s for lead id=%d is missing, recreating", eventID, booking.ID)
		return r.createAndLink(ctx, booking, input, opRecreate, ActionRelinked)
	case err != nil:
		r.metrics.IncCalendarSync(opGet, resultError)
		return ActionNone, fmt.Errorf("%w: get event %s: %v", ErrTransientSync, eventID, err)
	}
	r.metrics.IncCalendarSync(opGet, resultOK)

	if matches(current, input) {
		return ActionNone, nil
	}

	err = r.calendar.UpdateEvent(ctx, eventID, input)
	switch {
	case errors.Is(err, googlecalendar.ErrEventNotFound):
		r.metrics.IncCalendarSync(opUpdate, resultNotFound)
		r.logger.Warn("CalendarSync: event %s for lead id=%d vanished during update, recreating", eventID, booking.ID)
		return r.createAndLink(ctx, booking, input, opRecreate, ActionRelinked)
	case err != nil:
		r.metrics.IncCalendarSync(opUpdate, resultError)
		return ActionNone, fmt.Errorf("%w: update event %s: %v", ErrTransientSync, eventID, err)
	}

	r.metrics.IncCalendarSync(opUpdate, resultOK)
	return ActionUpdated, nil
}

// createAndLink создает событие и сохраняет ссылку
// Ошибка сохранения ссылки после создания события фатальна: повтор создал бы второе событие
func (r *Reconciler) createAndLink(
	ctx context.Context,
	booking *domain.Booking,
	input googlecalendar.EventInput,
	op string,
	action Action,
) (Action, error) {
	eventID, err := r.calendar.CreateEvent(ctx, input)
	if err != nil {
		r.metrics.IncCalendarSync(op, resultError)
		return ActionNone, fmt.Errorf("%w: create event: %v", ErrTransientSync, err)
	}
	r.metrics.IncCalendarSync(op, resultOK)

	if err := r.bookingRepo.SetExternalEventRef(ctx, booking.ID, &eventID); err != nil {
		return action, fmt.Errorf("%w: event %s created but reference not stored for lead id=%d: %v",
			ErrFatalSyncInconsistency, eventID, booking.ID, err)
	}

	return action, nil
}

func (r *Reconciler) removeEvent(ctx context.Context, booking *domain.Booking) (Action, error) {
	if !booking.HasExternalEvent() {
		return ActionNone, nil
	}

	eventID := *booking.ExternalEventRef

	err := r.calendar.DeleteEvent(ctx, eventID)
	switch {
	case errors.Is(err, googlecalendar.ErrEventNotFound):
		r.metrics.IncCalendarSync(opDelete, resultNotFound)
	case err != nil:
		r.metrics.IncCalendarSync(opDelete, resultError)
		return ActionNone, fmt.Errorf("%w: delete event %s: %v", ErrTransientSync, eventID, err)
	default:
		r.metrics.IncCalendarSync(opDelete, resultOK)
	}

	if err := r.bookingRepo.SetExternalEventRef(ctx, booking.ID, nil); err != nil {
		return ActionDeleted, fmt.Errorf("%w: event %s deleted but reference not cleared for lead id=%d: %v",
			ErrFatalSyncInconsistency, eventID, booking.ID, err)
	}

	return ActionDeleted, nil
}
