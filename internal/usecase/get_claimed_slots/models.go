package get_claimed_slots

import (
	"time"

	"github.com/m04kA/AgencyBookingService/internal/domain"
	"github.com/m04kA/AgencyBookingService/pkg/types"
)

// Request запрос занятых слотов на дату
type Request struct {
	Date time.Time
}

// Response занятые слоты и сетка дня
type Response struct {
	Date         time.Time
	Selectable   bool               // дата доступна для записи
	ClaimedSlots []types.TimeString // время неотмененных заявок, без повторов
	Slots        []domain.SlotState
	Degraded     bool // хранилище недоступно, занятость неизвестна
}
