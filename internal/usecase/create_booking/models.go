package create_booking

import (
	"time"

	"github.com/m04kA/AgencyBookingService/pkg/types"
)

// Request модель запроса на создание заявки
type Request struct {
	Name        string           // Имя клиента
	Phone       string           // Телефон в любом формате, сохраняются только цифры
	MeetingDate time.Time        // Дата встречи (без времени)
	MeetingTime types.TimeString // Время из сетки слотов
	Notes       *string          // Комментарий (опционально)
}

// Response модель ответа с созданной заявкой
type Response struct {
	ID          int64
	Name        string
	Phone       string
	MeetingDate time.Time
	MeetingTime types.TimeString
	Status      string
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
