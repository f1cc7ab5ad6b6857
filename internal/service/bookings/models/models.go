package models

import (
	"time"

	"github.com/m04kA/AgencyBookingService/internal/domain"
)

// Request модели

// UpdateLeadRequest частичное обновление заявки администратором
// nil-поля не меняются. ClearNotes удаляет заметки
type UpdateLeadRequest struct {
	Status     *string `json:"status,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	ClearNotes bool    `json:"clearNotes,omitempty"`
}

// ListLeadsRequest запрос заявок на дату
type ListLeadsRequest struct {
	Date             time.Time
	IncludeCancelled bool
}

// Response модели

// LeadResponse ответ с данными заявки
type LeadResponse struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	MeetingDate      string    `json:"meetingDate"` // "2025-10-15"
	MeetingTime      string    `json:"meetingTime"` // "9:00"
	Status           string    `json:"status"`
	Notes            *string   `json:"notes,omitempty"`
	ExternalEventRef *string   `json:"externalEventRef,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// LeadListResponse ответ со списком заявок
type LeadListResponse struct {
	Leads []LeadResponse `json:"leads"`
}

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *LeadResponse {
	if b == nil {
		return nil
	}

	return &LeadResponse{
		ID:               b.ID,
		Name:             b.Name,
		Phone:            b.Phone,
		MeetingDate:      b.MeetingDate.Format(domain.DateFormat),
		MeetingTime:      b.MeetingTime.String(),
		Status:           string(b.Status),
		Notes:            b.Notes,
		ExternalEventRef: b.ExternalEventRef,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *LeadListResponse {
	resp := &LeadListResponse{
		Leads: make([]LeadResponse, 0, len(bookings)),
	}

	for _, b := range bookings {
		resp.Leads = append(resp.Leads, *FromDomainBooking(b))
	}

	return resp
}
