package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/AgencyBookingService/pkg/types"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		from    BookingStatus
		to      BookingStatus
		wantErr error
	}{
		{from: StatusPending, to: StatusConfirmed},
		{from: StatusPending, to: StatusCancelled},
		{from: StatusConfirmed, to: StatusCancelled},
		{from: StatusCancelled, to: StatusPending},
		{from: StatusConfirmed, to: StatusConfirmed},
		{from: StatusConfirmed, to: StatusPending, wantErr: ErrInvalidTransition},
		{from: StatusCancelled, to: StatusConfirmed, wantErr: ErrInvalidTransition},
		{from: StatusPending, to: BookingStatus("archived"), wantErr: ErrUnknownStatus},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseBookingStatus(t *testing.T) {
	s, err := ParseBookingStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)
	assert.True(t, s.ClaimsSlot())
	assert.False(t, StatusCancelled.ClaimsSlot())

	_, err = ParseBookingStatus("Confirmed")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestIsEnumeratedSlot(t *testing.T) {
	assert.True(t, IsEnumeratedSlot(types.MustTimeString("09:00")))
	assert.True(t, IsEnumeratedSlot(types.MustTimeString("18:00")))
	assert.False(t, IsEnumeratedSlot(types.MustTimeString("8:00")))
	assert.False(t, IsEnumeratedSlot(types.MustTimeString("10:30")))
	assert.False(t, IsEnumeratedSlot(types.TimeString{}))
}

func TestIsSelectableDate(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC) // понедельник

	assert.True(t, IsSelectableDate(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), now), "today")
	assert.True(t, IsSelectableDate(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), now), "friday")
	assert.False(t, IsSelectableDate(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), now), "saturday")
	assert.False(t, IsSelectableDate(time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC), now), "sunday")
	assert.False(t, IsSelectableDate(time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), now), "past")
}

func TestBuildSlotStates(t *testing.T) {
	claimed := map[types.TimeString]struct{}{
		types.MustTimeString("10:00"): {},
		types.MustTimeString("7:30"):  {},
	}

	states := BuildSlotStates(claimed, true)
	require.Len(t, states, len(MeetingSlots))
	for _, s := range states {
		assert.Equal(t, s.Time.String() != "10:00", s.Available, s.Time.String())
	}

	for _, s := range BuildSlotStates(nil, false) {
		assert.False(t, s.Available)
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "77011234567", NormalizePhone("+7 (701) 123-45-67"))
	assert.Equal(t, "", NormalizePhone("phone"))
}
