package get_claimed_slots

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/AgencyBookingService/internal/domain"
	"github.com/m04kA/AgencyBookingService/pkg/types"
)

// UseCase получение занятых слотов на дату
type UseCase struct {
	bookingRepo  BookingRepository
	cache        SlotCache
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
// cache может быть nil
func NewUseCase(
	bookingRepo BookingRepository,
	cache SlotCache,
	metrics Metrics,
	timeProvider TimeProvider,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		cache:        cache,
		metrics:      metrics,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Execute возвращает занятые слоты на дату
// Ошибка хранилища не пробрасывается: возвращается пустое множество, чтобы форма записи продолжала работать.
// Двойная запись при этом невозможна, её отсекает уникальный индекс при создании заявки
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || req.Date.IsZero() {
		return nil, ErrInvalidInput
	}

	date := domain.DateOnly(req.Date)
	selectable := domain.IsSelectableDate(date, uc.timeProvider.Now())

	claimed, degraded := uc.claimedSlots(ctx, date)

	claimedSet := make(map[types.TimeString]struct{}, len(claimed))
	for _, t := range claimed {
		claimedSet[t] = struct{}{}
	}

	return &Response{
		Date:         date,
		Selectable:   selectable,
		ClaimedSlots: claimed,
		Slots:        domain.BuildSlotStates(claimedSet, selectable),
		Degraded:     degraded,
	}, nil
}

func (uc *UseCase) claimedSlots(ctx context.Context, date time.Time) ([]types.TimeString, bool) {
	dateStr := date.Format(domain.DateFormat)

	if uc.cache != nil {
		cached, found, err := uc.cache.Get(ctx, date)
		if err != nil {
			uc.logger.Warn("GetClaimedSlots: cache get failed for date=%s: %v", dateStr, err)
		} else if found {
			return cached, false
		}
	}

	bookings, err := uc.bookingRepo.ListByDate(ctx, domain.BookingsFilter{Date: date})
	if err != nil {
		uc.logger.Warn("GetClaimedSlots: storage unavailable for date=%s, returning empty set: %v", dateStr, err)
		uc.metrics.IncAvailabilityDegraded()
		return []types.TimeString{}, true
	}

	claimed := collectClaimed(bookings)

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, date, claimed); err != nil {
			uc.logger.Warn("GetClaimedSlots: cache set failed for date=%s: %v", dateStr, err)
		}
	}

	uc.logger.Info("GetClaimedSlots: date=%s, claimed=%d", dateStr, len(claimed))
	return claimed, false
}

// collectClaimed повторно фильтрует по статусу и убирает дубликаты
func collectClaimed(bookings []*domain.Booking) []types.TimeString {
	seen := make(map[types.TimeString]struct{}, len(bookings))
	result := make([]types.TimeString, 0, len(bookings))

	for _, b := range bookings {
		if !b.IsActive() || b.MeetingTime.IsZero() {
			continue
		}
		if _, ok := seen[b.MeetingTime]; ok {
			continue
		}
		seen[b.MeetingTime] = struct{}{}
		result = append(result, b.MeetingTime)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].IsBefore(result[j])
	})

	return result
}
