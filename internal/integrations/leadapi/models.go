package leadapi

// CreateLeadRequest тело запроса на создание заявки
type CreateLeadRequest struct {
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	MeetingDate string  `json:"meetingDate"` // "2025-10-15"
	MeetingTime string  `json:"meetingTime"` // "10:00"
	Notes       *string `json:"notes,omitempty"`
}

// Lead созданная заявка
type Lead struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	MeetingDate string  `json:"meetingDate"`
	MeetingTime string  `json:"meetingTime"`
	Status      string  `json:"status"`
	Notes       *string `json:"notes,omitempty"`
}

// slotsResponse ответ GET /slots, нужны только занятые слоты
type slotsResponse struct {
	Date         string   `json:"date"`
	ClaimedSlots []string `json:"claimedSlots"`
}

// ErrorResponse модель ошибки API
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
