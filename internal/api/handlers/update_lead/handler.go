package update_lead

import (
	"errors"
	"net/http"

	"github.com/m04kA/AgencyBookingService/internal/api/handlers"
	createLead "github.com/m04kA/AgencyBookingService/internal/api/handlers/create_lead"
	"github.com/m04kA/AgencyBookingService/internal/service/bookings"
	"github.com/m04kA/AgencyBookingService/internal/service/bookings/models"
)

const (
	msgInvalidLeadID      = "некорректный ID заявки"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgEmptyUpdate        = "нет полей для обновления"
	msgNotFound           = "заявка не найдена"
	msgInvalidStatus      = "неизвестный статус заявки"
	msgInvalidTransition  = "недопустимая смена статуса"
	msgInvalidInput       = "некорректные данные заявки"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/leads/{leadId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	leadID, err := handlers.PathInt64(r, "leadId")
	if err != nil {
		h.logger.Warn("PATCH /leads/{id} - Invalid lead ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidLeadID)
		return
	}

	var req models.UpdateLeadRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /leads/{id} - Invalid request body: lead_id=%d, error=%v", leadID, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if req.Status == nil && req.Notes == nil && !req.ClearNotes {
		h.logger.Warn("PATCH /leads/{id} - Empty update: lead_id=%d", leadID)
		handlers.RespondBadRequest(w, msgEmptyUpdate)
		return
	}

	lead, err := h.service.Update(r.Context(), leadID, &req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("PATCH /leads/{id} - Lead not found: lead_id=%d", leadID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrInvalidStatus):
			h.logger.Warn("PATCH /leads/{id} - Invalid status: lead_id=%d, error=%v", leadID, err)
			handlers.RespondBadRequest(w, msgInvalidStatus)

		case errors.Is(err, bookings.ErrInvalidTransition):
			h.logger.Warn("PATCH /leads/{id} - Transition rejected: lead_id=%d, error=%v", leadID, err)
			handlers.RespondConflict(w, msgInvalidTransition)

		case errors.Is(err, bookings.ErrSlotAlreadyBooked):
			h.logger.Warn("PATCH /leads/{id} - Slot already booked: lead_id=%d", leadID)
			handlers.RespondErrorCode(w, http.StatusConflict, handlers.CodeSlotAlreadyBooked, createLead.MsgSlotAlreadyBooked)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("PATCH /leads/{id} - Invalid input: lead_id=%d, error=%v", leadID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("PATCH /leads/{id} - Failed to update lead: lead_id=%d, error=%v", leadID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /leads/{id} - Lead updated successfully: lead_id=%d, status=%s", leadID, lead.Status)
	handlers.RespondJSON(w, http.StatusOK, lead)
}
