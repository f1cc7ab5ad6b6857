package booking

import (
	"github.com/m04kA/AgencyBookingService/pkg/dbmetrics"
)

// DBExecutor *dbmetrics.DB или транзакция из контекста (dbmetrics.GetExecutor)
type DBExecutor = dbmetrics.DBExecutor
