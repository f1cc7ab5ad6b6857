package googlecalendar

import "time"

// EventInput содержимое события, которое задает сервис
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Event событие, прочитанное из календаря
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}
