package create_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/AgencyBookingService/internal/domain"
	bookingRepo "github.com/m04kA/AgencyBookingService/internal/infra/storage/booking"
)

const (
	resultCreated  = "created"
	resultConflict = "conflict"
	resultInvalid  = "invalid"
	resultError    = "error"
)

// UseCase use case для создания заявки на встречу
type UseCase struct {
	bookingRepo  BookingRepository
	slotCache    SlotCacheInvalidator
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
// slotCache может быть nil
func NewUseCase(
	bookingRepo BookingRepository,
	slotCache SlotCacheInvalidator,
	metrics Metrics,
	timeProvider TimeProvider,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		slotCache:    slotCache,
		metrics:      metrics,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Execute создает заявку в статусе pending
// Предварительная проверка занятости только ускоряет типичный отказ.
// Гарантию "не больше одной активной заявки на слот" дает уникальный индекс при вставке
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrInvalidInput
	}

	if err := validateRequest(req, uc.timeProvider.Now()); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		uc.metrics.IncBookingCreated(resultInvalid)
		return nil, err
	}

	date := domain.DateOnly(req.MeetingDate)
	dateStr := date.Format(domain.DateFormat)
	uc.logger.Info("CreateBooking: date=%s, time=%s", dateStr, req.MeetingTime)

	// 1. Быстрая проверка занятости слота
	exists, err := uc.bookingRepo.ExistsActiveBySlot(ctx, date, req.MeetingTime)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to check slot %s %s: %v", dateStr, req.MeetingTime, err)
		uc.metrics.IncBookingCreated(resultError)
		return nil, fmt.Errorf("%w: failed to check slot: %v", ErrInternal, err)
	}
	if exists {
		uc.logger.Warn("CreateBooking: slot %s %s already booked", dateStr, req.MeetingTime)
		uc.metrics.IncBookingCreated(resultConflict)
		return nil, ErrSlotAlreadyBooked
	}

	// 2. Вставка, конкурентный конфликт отсекает уникальный индекс
	created, err := uc.bookingRepo.Create(ctx, &domain.Booking{
		Name:        req.Name,
		Phone:       req.Phone,
		MeetingDate: date,
		MeetingTime: req.MeetingTime,
		Status:      domain.StatusPending,
		Notes:       req.Notes,
	})
	if err != nil {
		if errors.Is(err, bookingRepo.ErrSlotAlreadyBooked) {
			uc.logger.Warn("CreateBooking: slot %s %s taken by a concurrent request", dateStr, req.MeetingTime)
			uc.metrics.IncBookingCreated(resultConflict)
			return nil, ErrSlotAlreadyBooked
		}
		uc.logger.Error("CreateBooking: failed to create booking: %v", err)
		uc.metrics.IncBookingCreated(resultError)
		return nil, fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
	}

	// 3. Сброс кэша занятых слотов
	if uc.slotCache != nil {
		if err := uc.slotCache.Invalidate(ctx, date); err != nil {
			uc.logger.Warn("CreateBooking: failed to invalidate slot cache for %s: %v", dateStr, err)
		}
	}

	uc.metrics.IncBookingCreated(resultCreated)
	uc.logger.Info("CreateBooking: successfully created booking id=%d", created.ID)

	return &Response{
		ID:          created.ID,
		Name:        created.Name,
		Phone:       created.Phone,
		MeetingDate: created.MeetingDate,
		MeetingTime: created.MeetingTime,
		Status:      string(created.Status),
		Notes:       created.Notes,
		CreatedAt:   created.CreatedAt,
		UpdatedAt:   created.UpdatedAt,
	}, nil
}
