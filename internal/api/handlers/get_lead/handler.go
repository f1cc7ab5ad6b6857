package get_lead

import (
	"errors"
	"net/http"

	"github.com/m04kA/AgencyBookingService/internal/api/handlers"
	"github.com/m04kA/AgencyBookingService/internal/service/bookings"
)

const (
	msgInvalidLeadID = "некорректный ID заявки"
	msgNotFound      = "заявка не найдена"
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

// Handle GET /api/v1/leads/{leadId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	leadID, err := handlers.PathInt64(r, "leadId")
	if err != nil {
		h.logger.Warn("GET /leads/{id} - Invalid lead ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidLeadID)
		return
	}

	lead, err := h.service.GetByID(r.Context(), leadID)
	if err != nil {
		if errors.Is(err, bookings.ErrBookingNotFound) {
			h.logger.Warn("GET /leads/{id} - Lead not found: lead_id=%d", leadID)
			handlers.RespondNotFound(w, msgNotFound)
			return
		}
		h.logger.Error("GET /leads/{id} - Failed to get lead: lead_id=%d, error=%v", leadID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /leads/{id} - Lead retrieved successfully: lead_id=%d", leadID)
	handlers.RespondJSON(w, http.StatusOK, lead)
}
