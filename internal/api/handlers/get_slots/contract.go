package get_slots

import (
	"context"

	getClaimedSlots "github.com/m04kA/AgencyBookingService/internal/usecase/get_claimed_slots"
)

type GetClaimedSlotsUseCase interface {
	Execute(ctx context.Context, req *getClaimedSlots.Request) (*getClaimedSlots.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
