package bookingform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/m04kA/AgencyBookingService/internal/domain"
	"github.com/m04kA/AgencyBookingService/internal/integrations/leadapi"
	"github.com/m04kA/AgencyBookingService/pkg/types"
)

// Stage шаг формы записи
type Stage string

const (
	StageDate    Stage = "date"
	StageTime    Stage = "time"
	StageContact Stage = "contact"
	StageDone    Stage = "done"
)

const (
	MessageSlotTaken      = "К сожалению, это время уже занято. Пожалуйста, выберите другое время."
	MessageGenericFailure = "Не удалось отправить заявку. Пожалуйста, попробуйте еще раз."
)

// State снимок формы для отображения
type State struct {
	Stage   Stage
	Date    time.Time
	Time    types.TimeString
	Name    string
	Phone   string
	Notes   *string
	Slots   []domain.SlotState
	Loading bool
	Message string
	Lead    *leadapi.Lead
}

// Controller состояние формы записи одного пользователя
// Занятые слоты хранятся только для текущей даты и сбрасываются при смене даты
type Controller struct {
	availability AvailabilityAPI
	bookings     BookingAPI
	timeProvider TimeProvider
	logger       Logger

	mu         sync.Mutex
	generation uint64 // растет при каждой смене даты, отсекает устаревшие ответы
	loading    bool   // занятые слоты текущей даты еще загружаются
	stage      Stage
	date       time.Time
	slot       types.TimeString
	claimed    map[types.TimeString]struct{}
	name       string
	phone      string
	notes      *string
	message    string
	lead       *leadapi.Lead
}

// NewController создает контроллер формы записи
func NewController(availability AvailabilityAPI, bookings BookingAPI, timeProvider TimeProvider, logger Logger) *Controller {
	return &Controller{
		availability: availability,
		bookings:     bookings,
		timeProvider: timeProvider,
		logger:       logger,
		stage:        StageDate,
		claimed:      make(map[types.TimeString]struct{}),
	}
}

// SelectDate выбирает дату и загружает занятые слоты
// Ошибка загрузки не блокирует форму: все слоты считаются свободными
func (c *Controller) SelectDate(ctx context.Context, date time.Time) error {
	date = domain.DateOnly(date)
	if !domain.IsSelectableDate(date, c.timeProvider.Now()) {
		return fmt.Errorf("%w: %s", ErrDateNotSelectable, date.Format(domain.DateFormat))
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.date = date
	c.slot = types.TimeString{}
	c.claimed = make(map[types.TimeString]struct{})
	c.stage = StageTime
	c.message = ""
	c.loading = true
	c.mu.Unlock()

	claimed, err := c.availability.GetClaimedSlots(ctx, date)
	if err != nil {
		c.logger.Warn("BookingForm: claimed slots for %s unavailable, showing all open: %v",
			date.Format(domain.DateFormat), err)
		claimed = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// пользователь уже выбрал другую дату
		return nil
	}
	c.loading = false
	for _, t := range claimed {
		c.claimed[t] = struct{}{}
	}
	if _, taken := c.claimed[c.slot]; taken && !c.slot.IsZero() {
		c.slot = types.TimeString{}
		c.stage = StageTime
	}
	return nil
}

// SelectTime запоминает выбранное время
func (c *Controller) SelectTime(t types.TimeString) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage == StageDate || c.date.IsZero() {
		return ErrNoDateSelected
	}
	if c.loading {
		return ErrSlotsLoading
	}
	if !domain.IsEnumeratedSlot(t) {
		return fmt.Errorf("%w: %s is not offered", ErrSlotUnavailable, t)
	}
	if _, taken := c.claimed[t]; taken {
		return fmt.Errorf("%w: %s is already claimed", ErrSlotUnavailable, t)
	}

	c.slot = t
	c.stage = StageContact
	c.message = ""
	return nil
}

// SetContact сохраняет контактные данные, телефон приводится к цифрам
func (c *Controller) SetContact(name, phone string, notes *string) error {
	name = strings.TrimSpace(name)
	digits := domain.NormalizePhone(phone)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidContact)
	}
	if len(digits) < domain.MinPhoneDigits {
		return fmt.Errorf("%w: phone must contain at least %d digits", ErrInvalidContact, domain.MinPhoneDigits)
	}
	if notes != nil {
		trimmed := strings.TrimSpace(*notes)
		if trimmed == "" {
			notes = nil
		} else {
			notes = &trimmed
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
	c.phone = digits
	c.notes = notes
	return nil
}

// Submit отправляет заявку
//
// Конфликт слота: форма возвращается к выбору времени, слот помечается занятым, контакты сохраняются.
// Прочие ошибки: всё введенное сохраняется, отправку можно повторить.
func (c *Controller) Submit(ctx context.Context) (*leadapi.Lead, error) {
	c.mu.Lock()
	if c.stage != StageContact || c.slot.IsZero() || c.name == "" || c.phone == "" {
		c.mu.Unlock()
		return nil, ErrIncomplete
	}
	req := leadapi.CreateLeadRequest{
		Name:        c.name,
		Phone:       c.phone,
		MeetingDate: c.date.Format(domain.DateFormat),
		MeetingTime: c.slot.String(),
		Notes:       c.notes,
	}
	gen := c.generation
	slot := c.slot
	c.mu.Unlock()

	lead, err := c.bookings.CreateLead(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if errors.Is(err, leadapi.ErrSlotAlreadyBooked) {
			c.logger.Warn("BookingForm: slot %s %s taken before submit", req.MeetingDate, req.MeetingTime)
			if gen == c.generation {
				c.claimed[slot] = struct{}{}
				c.slot = types.TimeString{}
				c.stage = StageTime
				c.message = MessageSlotTaken
			}
			return nil, fmt.Errorf("%w: %v", ErrSlotTaken, err)
		}

		c.logger.Warn("BookingForm: submit failed for %s %s: %v", req.MeetingDate, req.MeetingTime, err)
		if gen == c.generation {
			c.message = MessageGenericFailure
		}
		return nil, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}

	c.logger.Info("BookingForm: lead_id=%d submitted for %s %s", lead.ID, req.MeetingDate, req.MeetingTime)
	c.lead = lead
	c.stage = StageDone
	c.message = ""
	return lead, nil
}

// State возвращает снимок формы
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	var slots []domain.SlotState
	if !c.date.IsZero() {
		slots = domain.BuildSlotStates(c.claimed, true)
	}

	return State{
		Stage:   c.stage,
		Date:    c.date,
		Time:    c.slot,
		Name:    c.name,
		Phone:   c.phone,
		Notes:   c.notes,
		Slots:   slots,
		Loading: c.loading,
		Message: c.message,
		Lead:    c.lead,
	}
}
