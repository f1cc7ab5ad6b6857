package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidTimeFormat строка не похожа на время H:MM / HH:MM / HH:MM:SS
	ErrInvalidTimeFormat = errors.New("invalid time string format")

	// ErrTimeOverflow результат арифметики вышел за пределы суток
	ErrTimeOverflow = errors.New("time string out of day range")
)

const minutesPerDay = 24 * 60

// TimeString время суток с точностью до минуты
// Каноническая форма без ведущего нуля: "9:00", "18:00"
// Значение сравнимо через == и пригодно как ключ map
type TimeString struct {
	minutes int
	valid   bool
}

// NewTimeString берёт часы и минуты из time.Time
func NewTimeString(t time.Time) TimeString {
	return TimeString{minutes: t.Hour()*60 + t.Minute(), valid: true}
}

// NewTimeStringFromString парсит "9:00", "09:00" или "09:00:00"
func NewTimeStringFromString(s string) (TimeString, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeString{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	hours, err := parseComponent(parts[0], 23)
	if err != nil {
		return TimeString{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	if len(parts[1]) != 2 {
		return TimeString{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	minutes, err := parseComponent(parts[1], 59)
	if err != nil {
		return TimeString{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	if len(parts) == 3 {
		// секунды допускаются (формат TIME в Postgres), но отбрасываются
		if _, err := parseComponent(parts[2], 59); err != nil {
			return TimeString{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
		}
	}

	return TimeString{minutes: hours*60 + minutes, valid: true}, nil
}

// MustTimeString как NewTimeStringFromString, но паникует на ошибке (для констант)
func MustTimeString(s string) TimeString {
	t, err := NewTimeStringFromString(s)
	if err != nil {
		panic(err)
	}
	return t
}

// NormalizeTime приводит строку времени к канонической форме
func NormalizeTime(s string) (string, error) {
	t, err := NewTimeStringFromString(s)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

func parseComponent(s string, max int) (int, error) {
	if s == "" || len(s) > 2 {
		return 0, ErrInvalidTimeFormat
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v > max {
		return 0, ErrInvalidTimeFormat
	}
	return v, nil
}

func (t TimeString) IsZero() bool {
	return !t.valid
}

// Validate проверяет, что значение было успешно распарсено
func (t TimeString) Validate() error {
	if !t.valid {
		return ErrInvalidTimeFormat
	}
	return nil
}

func (t TimeString) Hour() int {
	return t.minutes / 60
}

func (t TimeString) Minute() int {
	return t.minutes % 60
}

// Minutes минуты от начала суток
func (t TimeString) Minutes() int {
	return t.minutes
}

func (t TimeString) String() string {
	if !t.valid {
		return ""
	}
	return fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())
}

// AddMinutes сдвигает время, не выходя за пределы суток
func (t TimeString) AddMinutes(n int) (TimeString, error) {
	result := t.minutes + n
	if result < 0 || result >= minutesPerDay {
		return TimeString{}, ErrTimeOverflow
	}
	return TimeString{minutes: result, valid: true}, nil
}

func (t TimeString) IsBefore(other TimeString) bool {
	return t.minutes < other.minutes
}

func (t TimeString) IsAfter(other TimeString) bool {
	return t.minutes > other.minutes
}

// On комбинирует дату и время в указанной таймзоне
func (t TimeString) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

// Value реализует driver.Valuer, в БД уходит "HH:MM:00"
func (t TimeString) Value() (driver.Value, error) {
	if !t.valid {
		return nil, nil
	}
	return fmt.Sprintf("%02d:%02d:00", t.Hour(), t.Minute()), nil
}

// Scan реализует sql.Scanner для колонок TIME / TEXT
func (t *TimeString) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = TimeString{}
		return nil
	case []byte:
		parsed, err := NewTimeStringFromString(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case string:
		parsed, err := NewTimeStringFromString(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case time.Time:
		*t = NewTimeString(v)
		return nil
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidTimeFormat, src)
	}
}

func (t TimeString) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = TimeString{}
		return nil
	}
	parsed, err := NewTimeStringFromString(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
