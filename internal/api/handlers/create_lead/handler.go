package create_lead

import (
	"errors"
	"net/http"

	"github.com/m04kA/AgencyBookingService/internal/api/handlers"
	createBooking "github.com/m04kA/AgencyBookingService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateFormat  = "некорректный формат даты встречи, ожидается YYYY-MM-DD"
	msgInvalidTimeFormat  = "некорректный формат времени встречи, ожидается HH:MM"
	msgInvalidInput       = "некорректные контактные данные"
	msgInvalidDate        = "выбранная дата недоступна для записи"
	msgInvalidTimeSlot    = "выбранное время не входит в сетку слотов"

	// MsgSlotAlreadyBooked содержит "already booked": старые клиенты распознают конфликт по тексту
	MsgSlotAlreadyBooked = "this time slot is already booked"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/leads
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /leads - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /leads - Failed to parse request: %v", err)
		if errors.Is(err, errTimeFormat) {
			handlers.RespondBadRequest(w, msgInvalidTimeFormat)
		} else {
			handlers.RespondBadRequest(w, msgInvalidDateFormat)
		}
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrSlotAlreadyBooked):
			h.logger.Warn("POST /leads - Slot already booked: date=%s, time=%s", req.MeetingDate, req.MeetingTime)
			handlers.RespondErrorCode(w, http.StatusConflict, handlers.CodeSlotAlreadyBooked, MsgSlotAlreadyBooked)

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /leads - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, createBooking.ErrInvalidDate):
			h.logger.Warn("POST /leads - Date not selectable: date=%s", req.MeetingDate)
			handlers.RespondBadRequest(w, msgInvalidDate)

		case errors.Is(err, createBooking.ErrInvalidTimeSlot):
			h.logger.Warn("POST /leads - Invalid time slot: time=%s", req.MeetingTime)
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		default:
			h.logger.Error("POST /leads - Failed to create lead: date=%s, time=%s, error=%v",
				req.MeetingDate, req.MeetingTime, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /leads - Lead created successfully: lead_id=%d, date=%s, time=%s",
		result.ID, req.MeetingDate, result.MeetingTime)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
