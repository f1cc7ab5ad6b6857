package list_leads

import (
	"net/http"
	"strconv"

	"github.com/m04kA/AgencyBookingService/internal/api/handlers"
	"github.com/m04kA/AgencyBookingService/internal/domain"
	"github.com/m04kA/AgencyBookingService/internal/service/bookings/models"
)

const (
	msgMissingDate   = "не указана дата, ожидается параметр date=YYYY-MM-DD"
	msgInvalidDate   = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidParams = "некорректные параметры запроса"
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

// Handle GET /api/v1/leads
// Query params: date (обязательно), includeCancelled (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	dateStr := query.Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /leads - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	date, err := domain.ParseDate(dateStr)
	if err != nil {
		h.logger.Warn("GET /leads - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	req := &models.ListLeadsRequest{Date: date}
	if raw := query.Get("includeCancelled"); raw != "" {
		req.IncludeCancelled, err = strconv.ParseBool(raw)
		if err != nil {
			h.logger.Warn("GET /leads - Invalid includeCancelled: %v", err)
			handlers.RespondBadRequest(w, msgInvalidParams)
			return
		}
	}

	leads, err := h.service.ListByDate(r.Context(), req)
	if err != nil {
		h.logger.Error("GET /leads - Failed to list leads: date=%s, error=%v", dateStr, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /leads - Leads retrieved successfully: date=%s, count=%d", dateStr, len(leads.Leads))
	handlers.RespondJSON(w, http.StatusOK, leads)
}
