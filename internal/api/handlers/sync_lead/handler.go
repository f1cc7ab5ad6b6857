package sync_lead

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

// SyncAccepted ответ на запрос пересинхронизации
type SyncAccepted struct {
	LeadID int64  `json:"leadId"`
	Status string `json:"status"`
}

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

// Handle POST /api/v1/leads/{leadId}/sync
// Ставит пересинхронизацию календаря в очередь, результат приходит асинхронно
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	leadID, err := handlers.PathInt64(r, "leadId")
	if err != nil {
		h.logger.Warn("POST /leads/{id}/sync - Invalid lead ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidLeadID)
		return
	}

	if err := h.service.RequestResync(r.Context(), leadID); err != nil {
		if errors.Is(err, bookings.ErrBookingNotFound) {
			h.logger.Warn("POST /leads/{id}/sync - Lead not found: lead_id=%d", leadID)
			handlers.RespondNotFound(w, msgNotFound)
			return
		}
		h.logger.Error("POST /leads/{id}/sync - Failed to enqueue resync: lead_id=%d, error=%v", leadID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /leads/{id}/sync - Resync enqueued: lead_id=%d", leadID)
	handlers.RespondJSON(w, http.StatusAccepted, SyncAccepted{LeadID: leadID, Status: "queued"})
}
