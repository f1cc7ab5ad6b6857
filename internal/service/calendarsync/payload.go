package calendarsync

import (
	"strings"
	"time"

	"github.com/m04kA/AgencyBookingService/internal/domain"
	"github.com/m04kA/AgencyBookingService/internal/integrations/googlecalendar"
)

// BuildEventInput строит содержимое события календаря по заявке
// Время встречи интерпретируется в таймзоне площадки
func BuildEventInput(b *domain.Booking, loc *time.Location, duration time.Duration) googlecalendar.EventInput {
	if loc == nil {
		loc = time.UTC
	}
	if duration <= 0 {
		duration = domain.DefaultMeetingDuration
	}

	start := b.MeetingTime.On(b.MeetingDate, loc)

	description := "Телефон: +" + b.Phone
	if b.Notes != nil && strings.TrimSpace(*b.Notes) != "" {
		description += "\nЗаметки: " + strings.TrimSpace(*b.Notes)
	}

	return googlecalendar.EventInput{
		Summary:     "Встреча: " + b.Name,
		Description: description,
		Start:       start,
		End:         start.Add(duration),
	}
}

// matches сравнивает события по содержимому; время сравнивается как моменты, без учета зоны
func matches(ev *googlecalendar.Event, input googlecalendar.EventInput) bool {
	return ev.Summary == input.Summary &&
		ev.Description == input.Description &&
		ev.Start.Equal(input.Start) &&
		ev.End.Equal(input.End)
}
