package domain

import (
	"time"

	"github.com/m04kA/AgencyBookingService/pkg/types"
)

// Slot пара (дата, время), доступная для записи
type Slot struct {
	Date time.Time
	Time types.TimeString
}

// SlotState состояние слота в сетке дня
type SlotState struct {
	Time      types.TimeString
	Available bool
}

// MeetingSlots фиксированная сетка времени встреч (местное время площадки)
var MeetingSlots = []types.TimeString{
	types.MustTimeString("9:00"),
	types.MustTimeString("10:00"),
	types.MustTimeString("11:00"),
	types.MustTimeString("12:00"),
	types.MustTimeString("13:00"),
	types.MustTimeString("14:00"),
	types.MustTimeString("15:00"),
	types.MustTimeString("16:00"),
	types.MustTimeString("17:00"),
	types.MustTimeString("18:00"),
}

// IsEnumeratedSlot проверяет, входит ли время в фиксированную сетку
func IsEnumeratedSlot(t types.TimeString) bool {
	if t.IsZero() {
		return false
	}
	for _, slot := range MeetingSlots {
		if slot == t {
			return true
		}
	}
	return false
}

// IsSelectableDate дата доступна для записи: не выходной и не раньше сегодняшнего дня
// now должен быть в таймзоне площадки
func IsSelectableDate(date, now time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !DateOnly(date).Before(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC))
}

// DateOnly обнуляет время и приводит дату к UTC, сохраняя календарный день
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BuildSlotStates строит сетку дня с учётом занятых слотов
// Если дата недоступна для записи, все слоты помечаются занятыми
func BuildSlotStates(claimed map[types.TimeString]struct{}, selectable bool) []SlotState {
	states := make([]SlotState, len(MeetingSlots))
	for i, slot := range MeetingSlots {
		_, taken := claimed[slot]
		states[i] = SlotState{Time: slot, Available: selectable && !taken}
	}
	return states
}
