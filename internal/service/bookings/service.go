package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m04kA/AgencyBookingService/internal/domain"
	"github.com/m04kA/AgencyBookingService/internal/events"
	bookingRepo "github.com/m04kA/AgencyBookingService/internal/infra/storage/booking"
	"github.com/m04kA/AgencyBookingService/internal/service/bookings/models"
)

// Service сервис жизненного цикла заявок
// Смена статуса фиксируется в БД вместе с outbox-событием и не зависит от внешнего календаря
type Service struct {
	bookingRepo BookingRepository
	outboxRepo  OutboxRepository
	txManager   TransactionManager
	slotCache   SlotCacheInvalidator
	notifier    Notifier
	metrics     Metrics
	logger      Logger
	now         func() time.Time
}

// NewService создает новый экземпляр сервиса заявок
// slotCache и notifier могут быть nil
func NewService(
	bookingRepo BookingRepository,
	outboxRepo OutboxRepository,
	txManager TransactionManager,
	slotCache SlotCacheInvalidator,
	notifier Notifier,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		outboxRepo:  outboxRepo,
		txManager:   txManager,
		slotCache:   slotCache,
		notifier:    notifier,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// updateResult итог транзакции обновления
type updateResult struct {
	booking  *domain.Booking
	changed  bool // статус изменился
	oldState domain.BookingStatus
	enqueued bool // в outbox добавлено событие
}

// GetByID получает заявку по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.LeadResponse, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBooking(booking), nil
}

// ListByDate получает заявки на дату, отсортированные по времени
func (s *Service) ListByDate(ctx context.Context, req *models.ListLeadsRequest) (*models.LeadListResponse, error) {
	if req == nil || req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	bookings, err := s.bookingRepo.ListByDate(ctx, domain.BookingsFilter{
		Date:             req.Date,
		IncludeCancelled: req.IncludeCancelled,
	})
	if err != nil {
		s.logger.Error("ListByDate: repository error for date=%s: %v", req.Date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: ListByDate - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListByDate: fetched %d bookings for date=%s", len(bookings), req.Date.Format(domain.DateFormat))
	return models.FromDomainBookingList(bookings), nil
}

// Transition меняет статус заявки
func (s *Service) Transition(ctx context.Context, id int64, status string) (*models.LeadResponse, error) {
	return s.Update(ctx, id, &models.UpdateLeadRequest{Status: &status})
}

// UpdateNotes меняет заметки заявки. nil удаляет заметки
func (s *Service) UpdateNotes(ctx context.Context, id int64, notes *string) (*models.LeadResponse, error) {
	if notes == nil {
		return s.Update(ctx, id, &models.UpdateLeadRequest{ClearNotes: true})
	}
	return s.Update(ctx, id, &models.UpdateLeadRequest{Notes: notes})
}

// Update применяет изменение статуса и/или заметок в одной транзакции
//
// Правила:
//   - переход статуса проверяется по таблице domain.ValidateTransition
//   - при смене статуса в outbox пишется lead.status_changed
//   - повторное подтверждение confirmed-заявки и правка заметок подтвержденной заявки пишут lead.resync_requested
//   - возврат cancelled -> pending в занятый слот отклоняется уникальным индексом
func (s *Service) Update(ctx context.Context, id int64, req *models.UpdateLeadRequest) (*models.LeadResponse, error) {
	if req == nil || (req.Status == nil && req.Notes == nil && !req.ClearNotes) {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	var newStatus *domain.BookingStatus
	if req.Status != nil {
		status, err := domain.ParseBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("Update: invalid status=%q for booking id=%d", *req.Status, id)
			return nil, ErrInvalidStatus
		}
		newStatus = &status
	}

	notes, notesChanged, err := normalizeNotes(req)
	if err != nil {
		return nil, err
	}

	var result updateResult
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		result = updateResult{booking: booking, oldState: booking.Status}
		resync := false

		// 1. Статус
		if newStatus != nil {
			if err := domain.ValidateTransition(booking.Status, *newStatus); err != nil {
				return err
			}

			if *newStatus != booking.Status {
				if err := s.bookingRepo.UpdateStatus(txCtx, id, *newStatus); err != nil {
					return err
				}
				if _, err := s.outboxRepo.Insert(txCtx, id, events.TypeStatusChanged, events.StatusChange{
					OldStatus:  booking.Status,
					NewStatus:  *newStatus,
					OccurredAt: s.now().UTC(),
				}); err != nil {
					return err
				}
				booking.Status = *newStatus
				result.changed = true
				result.enqueued = true
			} else if booking.IsConfirmed() {
				resync = true
			}
		}

		// 2. Заметки
		if notesChanged {
			if err := s.bookingRepo.UpdateNotes(txCtx, id, notes); err != nil {
				return err
			}
			booking.Notes = notes
			if booking.IsConfirmed() && !result.changed {
				resync = true
			}
		}

		if resync {
			if _, err := s.outboxRepo.Insert(txCtx, id, events.TypeResyncRequested, events.StatusChange{
				OldStatus:  booking.Status,
				NewStatus:  booking.Status,
				OccurredAt: s.now().UTC(),
			}); err != nil {
				return err
			}
			result.enqueued = true
		}

		return nil
	})

	if err != nil {
		return nil, s.mapError("Update", id, err)
	}

	s.afterCommit(ctx, result)

	if result.changed {
		s.logger.Info("Update: booking id=%d status %s -> %s", id, result.oldState, result.booking.Status)
	} else {
		s.logger.Info("Update: booking id=%d updated, status=%s", id, result.booking.Status)
	}

	return models.FromDomainBooking(result.booking), nil
}

// RequestResync ставит ручную пересинхронизацию заявки с календарем
func (s *Service) RequestResync(ctx context.Context, id int64) error {
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		_, err = s.outboxRepo.Insert(txCtx, id, events.TypeResyncRequested, events.StatusChange{
			OldStatus:  booking.Status,
			NewStatus:  booking.Status,
			OccurredAt: s.now().UTC(),
		})
		return err
	})
	if err != nil {
		return s.mapError("RequestResync", id, err)
	}

	s.notify()
	s.logger.Info("RequestResync: resync requested for booking id=%d", id)
	return nil
}

func (s *Service) afterCommit(ctx context.Context, result updateResult) {
	if result.changed {
		s.metrics.IncStatusTransition(string(result.oldState), string(result.booking.Status))

		if s.slotCache != nil {
			if err := s.slotCache.Invalidate(ctx, result.booking.MeetingDate); err != nil {
				s.logger.Warn("Update: failed to invalidate slot cache for booking id=%d: %v", result.booking.ID, err)
			}
		}
	}

	if result.enqueued {
		s.notify()
	}
}

func (s *Service) notify() {
	if s.notifier != nil {
		s.notifier.Notify()
	}
}

func (s *Service) mapError(op string, id int64, err error) error {
	switch {
	case errors.Is(err, bookingRepo.ErrBookingNotFound):
		s.logger.Warn("%s: booking id=%d not found", op, id)
		return ErrBookingNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		s.logger.Warn("%s: booking id=%d: %v", op, id, err)
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	case errors.Is(err, bookingRepo.ErrSlotAlreadyBooked):
		s.logger.Warn("%s: booking id=%d cannot be restored, slot already booked", op, id)
		return ErrSlotAlreadyBooked
	default:
		s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
		return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
}

func normalizeNotes(req *models.UpdateLeadRequest) (*string, bool, error) {
	if req.ClearNotes {
		return nil, true, nil
	}
	if req.Notes == nil {
		return nil, false, nil
	}

	notes := strings.TrimSpace(*req.Notes)
	if notes == "" {
		return nil, true, nil
	}
	if utf8.RuneCountInString(notes) > domain.MaxNotesLength {
		return nil, false, fmt.Errorf("%w: notes must be at most %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}
	return &notes, true, nil
}
