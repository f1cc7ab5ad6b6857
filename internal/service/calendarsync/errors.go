package calendarsync

import (
	"errors"
	"fmt"

	"github.com/m04kA/AgencyBookingService/internal/events"
)

var (
	// ErrTransientSync временная ошибка внешнего календаря или БД, синхронизация будет повторена
	ErrTransientSync = errors.New("calendarsync: transient sync failure")

	// ErrLeadBusy заявку синхронизирует другой воркер
	ErrLeadBusy = fmt.Errorf("%w: lead is locked by another worker", ErrTransientSync)

	// ErrFatalSyncInconsistency внешний календарь изменен, но ссылка в заявке не сохранена
	// Автоматический повтор может создать дубликат события, нужен ручной разбор
	ErrFatalSyncInconsistency = fmt.Errorf("%w: calendarsync: external event and stored reference diverged", events.ErrFatal)
)
