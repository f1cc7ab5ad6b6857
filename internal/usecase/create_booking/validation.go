package create_booking

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m04kA/AgencyBookingService/internal/domain"
)

// validateRequest проверяет и нормализует запрос (имя обрезается, телефон приводится к цифрам)
func validateRequest(req *Request, now time.Time) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.Name) > domain.MaxNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", ErrInvalidInput, domain.MaxNameLength)
	}

	req.Phone = domain.NormalizePhone(req.Phone)
	if len(req.Phone) < domain.MinPhoneDigits || len(req.Phone) > domain.MaxPhoneDigits {
		return fmt.Errorf("%w: phone must contain %d-%d digits", ErrInvalidInput, domain.MinPhoneDigits, domain.MaxPhoneDigits)
	}

	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		if notes == "" {
			req.Notes = nil
		} else if utf8.RuneCountInString(notes) > domain.MaxNotesLength {
			return fmt.Errorf("%w: notes must be at most %d characters", ErrInvalidInput, domain.MaxNotesLength)
		} else {
			req.Notes = &notes
		}
	}

	if req.MeetingDate.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	if !domain.IsSelectableDate(req.MeetingDate, now) {
		return fmt.Errorf("%w: %s is a weekend or in the past", ErrInvalidDate, req.MeetingDate.Format(domain.DateFormat))
	}

	if !domain.IsEnumeratedSlot(req.MeetingTime) {
		return fmt.Errorf("%w: %q is not an available meeting time", ErrInvalidTimeSlot, req.MeetingTime.String())
	}

	return nil
}
