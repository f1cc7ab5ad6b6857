package get_slots

import (
	"github.com/m04kA/AgencyBookingService/internal/domain"
	getClaimedSlots "github.com/m04kA/AgencyBookingService/internal/usecase/get_claimed_slots"
)

// SlotResponse состояние одного слота
type SlotResponse struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// SlotsResponse HTTP response model
type SlotsResponse struct {
	Date         string         `json:"date"`
	Selectable   bool           `json:"selectable"`
	ClaimedSlots []string       `json:"claimedSlots"`
	Slots        []SlotResponse `json:"slots"`
	Degraded     bool           `json:"degraded,omitempty"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP модель
func FromUseCaseResponse(resp *getClaimedSlots.Response) *SlotsResponse {
	out := &SlotsResponse{
		Date:         resp.Date.Format(domain.DateFormat),
		Selectable:   resp.Selectable,
		ClaimedSlots: make([]string, 0, len(resp.ClaimedSlots)),
		Slots:        make([]SlotResponse, 0, len(resp.Slots)),
		Degraded:     resp.Degraded,
	}
	for _, t := range resp.ClaimedSlots {
		out.ClaimedSlots = append(out.ClaimedSlots, t.String())
	}
	for _, s := range resp.Slots {
		out.Slots = append(out.Slots, SlotResponse{Time: s.Time.String(), Available: s.Available})
	}
	return out
}
