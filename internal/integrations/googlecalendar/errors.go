package googlecalendar

import "errors"

var (
	// ErrEventNotFound событие удалено или не существует (404, 410 или status=cancelled)
	ErrEventNotFound = errors.New("googlecalendar: event not found")

	// ErrRequestFailed ошибка сети или ответ 5xx/429, повтор возможен
	ErrRequestFailed = errors.New("googlecalendar: request failed")

	// ErrInvalidResponse ответ календаря не удалось разобрать
	ErrInvalidResponse = errors.New("googlecalendar: invalid response")

	// ErrInvalidConfig некорректные учетные данные или настройки клиента
	ErrInvalidConfig = errors.New("googlecalendar: invalid config")
)
