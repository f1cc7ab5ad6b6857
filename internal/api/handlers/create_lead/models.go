package create_lead

import (
	"fmt"
	"time"

	"github.com/m04kA/AgencyBookingService/internal/domain"
	createBooking "github.com/m04kA/AgencyBookingService/internal/usecase/create_booking"
	"github.com/m04kA/AgencyBookingService/pkg/types"
)

var (
	errDateFormat = fmt.Errorf("invalid meetingDate format")
	errTimeFormat = fmt.Errorf("invalid meetingTime format")
)

// CreateLeadRequest HTTP request model
type CreateLeadRequest struct {
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	MeetingDate string  `json:"meetingDate"` // "2025-10-15"
	MeetingTime string  `json:"meetingTime"` // "10:00"
	Notes       *string `json:"notes,omitempty"`
}

// LeadResponse HTTP response model
type LeadResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	MeetingDate string  `json:"meetingDate"`
	MeetingTime string  `json:"meetingTime"`
	Status      string  `json:"status"`
	Notes       *string `json:"notes,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateLeadRequest) ToUseCaseRequest() (*createBooking.Request, error) {
	meetingDate, err := domain.ParseDate(r.MeetingDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errDateFormat, err)
	}

	meetingTime, err := types.NewTimeStringFromString(r.MeetingTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errTimeFormat, err)
	}

	return &createBooking.Request{
		Name:        r.Name,
		Phone:       r.Phone,
		MeetingDate: meetingDate,
		MeetingTime: meetingTime,
		Notes:       r.Notes,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP модель
func FromUseCaseResponse(resp *createBooking.Response) *LeadResponse {
	return &LeadResponse{
		ID:          resp.ID,
		Name:        resp.Name,
		Phone:       resp.Phone,
		MeetingDate: resp.MeetingDate.Format(domain.DateFormat),
		MeetingTime: resp.MeetingTime.String(),
		Status:      resp.Status,
		Notes:       resp.Notes,
		CreatedAt:   resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   resp.UpdatedAt.Format(time.RFC3339),
	}
}
