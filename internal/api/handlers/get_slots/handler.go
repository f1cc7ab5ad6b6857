package get_slots

import (
	"errors"
	"net/http"

	"github.com/m04kA/AgencyBookingService/internal/api/handlers"
	"github.com/m04kA/AgencyBookingService/internal/domain"
	getClaimedSlots "github.com/m04kA/AgencyBookingService/internal/usecase/get_claimed_slots"
)

const (
	msgMissingDate = "не указана дата, ожидается параметр date=YYYY-MM-DD"
	msgInvalidDate = "некорректный формат даты, ожидается YYYY-MM-DD"
)

type Handler struct {
	useCase GetClaimedSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetClaimedSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/slots?date=YYYY-MM-DD
// При недоступном хранилище отвечает 200 с пустым набором занятых слотов и degraded=true
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /slots - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	date, err := domain.ParseDate(dateStr)
	if err != nil {
		h.logger.Warn("GET /slots - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getClaimedSlots.Request{Date: date})
	if err != nil {
		if errors.Is(err, getClaimedSlots.ErrInvalidInput) {
			h.logger.Warn("GET /slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDate)
			return
		}
		h.logger.Error("GET /slots - Failed to get slots: date=%s, error=%v", dateStr, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /slots - Slots retrieved: date=%s, claimed=%d, degraded=%t",
		dateStr, len(result.ClaimedSlots), result.Degraded)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
