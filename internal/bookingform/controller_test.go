package bookingform

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/AgencyBookingService/internal/integrations/leadapi"
	"github.com/m04kA/AgencyBookingService/pkg/types"
)

type fakeAvailability struct {
	claimed map[string][]types.TimeString
	err     error
	calls   int
}

func (f *fakeAvailability) GetClaimedSlots(_ context.Context, date time.Time) ([]types.TimeString, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.claimed[date.Format("2006-01-02")], nil
}

type fakeBookings struct {
	got  []leadapi.CreateLeadRequest
	errs []error
}

func (f *fakeBookings) CreateLead(_ context.Context, in leadapi.CreateLeadRequest) (*leadapi.Lead, error) {
	f.got = append(f.got, in)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &leadapi.Lead{ID: int64(len(f.got)), MeetingDate: in.MeetingDate, MeetingTime: in.MeetingTime, Status: "pending"}, nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{}) {}

var (
	monday   = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	saturday = time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
	today    = time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
)

func newController(avail *fakeAvailability, bookings *fakeBookings) *Controller {
	return NewController(avail, bookings, fixedClock{now: today}, nopLogger{})
}

func fillForm(t *testing.T, c *Controller, slot string) {
	t.Helper()
	require.NoError(t, c.SelectDate(context.Background(), monday))
	require.NoError(t, c.SelectTime(types.MustTimeString(slot)))
	require.NoError(t, c.SetContact("Aigerim", "+7 (701) 123-45-67", nil))
}

func TestController_SelectDate(t *testing.T) {
	avail := &fakeAvailability{claimed: map[string][]types.TimeString{
		"2025-03-10": {types.MustTimeString("10:00")},
	}}
	c := newController(avail, &fakeBookings{})

	assert.ErrorIs(t, c.SelectDate(context.Background(), saturday), ErrDateNotSelectable)
	assert.ErrorIs(t, c.SelectDate(context.Background(), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)), ErrDateNotSelectable)

	require.NoError(t, c.SelectDate(context.Background(), monday))
	state := c.State()
	assert.Equal(t, StageTime, state.Stage)

	for _, s := range state.Slots {
		if s.Time == types.MustTimeString("10:00") {
			assert.False(t, s.Available)
		} else {
			assert.True(t, s.Available, s.Time.String())
		}
	}

	assert.ErrorIs(t, c.SelectTime(types.MustTimeString("10:00")), ErrSlotUnavailable)
	assert.ErrorIs(t, c.SelectTime(types.MustTimeString("10:30")), ErrSlotUnavailable)
	assert.NoError(t, c.SelectTime(types.MustTimeString("9:00")))
}

func TestController_SelectDate_AvailabilityFailureShowsAllOpen(t *testing.T) {
	c := newController(&fakeAvailability{err: errors.New("timeout")}, &fakeBookings{})

	require.NoError(t, c.SelectDate(context.Background(), monday))

	for _, s := range c.State().Slots {
		assert.True(t, s.Available)
	}
}

func TestController_SelectDate_ResetsPreviousDate(t *testing.T) {
	avail := &fakeAvailability{claimed: map[string][]types.TimeString{
		"2025-03-10": {types.MustTimeString("10:00")},
	}}
	c := newController(avail, &fakeBookings{})

	require.NoError(t, c.SelectDate(context.Background(), monday))
	require.NoError(t, c.SelectTime(types.MustTimeString("11:00")))

	require.NoError(t, c.SelectDate(context.Background(), monday.AddDate(0, 0, 1)))
	state := c.State()
	assert.True(t, state.Time.IsZero())
	assert.NoError(t, c.SelectTime(types.MustTimeString("10:00")), "claims of the previous date are dropped")
	assert.Equal(t, 2, avail.calls)
}

func TestController_SetContact(t *testing.T) {
	c := newController(&fakeAvailability{}, &fakeBookings{})

	assert.ErrorIs(t, c.SetContact(" ", "77011234567", nil), ErrInvalidContact)
	assert.ErrorIs(t, c.SetContact("A", "12-34", nil), ErrInvalidContact)

	notes := "  "
	require.NoError(t, c.SetContact(" Aigerim ", "+7 (701) 123-45-67", &notes))
	state := c.State()
	assert.Equal(t, "Aigerim", state.Name)
	assert.Equal(t, "77011234567", state.Phone)
	assert.Nil(t, state.Notes)
}

func TestController_Submit(t *testing.T) {
	bookings := &fakeBookings{}
	c := newController(&fakeAvailability{}, bookings)

	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrIncomplete)

	fillForm(t, c, "14:00")

	lead, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pending", lead.Status)

	require.Len(t, bookings.got, 1)
	assert.Equal(t, leadapi.CreateLeadRequest{
		Name:        "Aigerim",
		Phone:       "77011234567",
		MeetingDate: "2025-03-10",
		MeetingTime: "14:00",
	}, bookings.got[0])
	assert.Equal(t, StageDone, c.State().Stage)
}

func TestController_Submit_SlotTaken(t *testing.T) {
	bookings := &fakeBookings{errs: []error{fmt.Errorf("wrapped: %w", leadapi.ErrSlotAlreadyBooked)}}
	c := newController(&fakeAvailability{}, bookings)
	fillForm(t, c, "10:00")

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrSlotTaken)

	state := c.State()
	assert.Equal(t, StageTime, state.Stage)
	assert.True(t, state.Time.IsZero())
	assert.Equal(t, MessageSlotTaken, state.Message)
	assert.Equal(t, "Aigerim", state.Name)
	assert.Equal(t, "77011234567", state.Phone)
	assert.Equal(t, monday, state.Date)
	assert.ErrorIs(t, c.SelectTime(types.MustTimeString("10:00")), ErrSlotUnavailable)

	require.NoError(t, c.SelectTime(types.MustTimeString("11:00")))
	_, err = c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "11:00", bookings.got[1].MeetingTime)
}

func TestController_Submit_GenericFailureIsRetryable(t *testing.T) {
	bookings := &fakeBookings{errs: []error{leadapi.ErrInvalidResponse}}
	c := newController(&fakeAvailability{}, bookings)
	fillForm(t, c, "10:00")

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrSubmitFailed)
	assert.NotErrorIs(t, err, ErrSlotTaken)

	state := c.State()
	assert.Equal(t, StageContact, state.Stage)
	assert.Equal(t, MessageGenericFailure, state.Message)
	assert.Equal(t, types.MustTimeString("10:00"), state.Time)
	assert.Equal(t, "Aigerim", state.Name)

	_, err = c.Submit(context.Background())
	require.NoError(t, err)
	assert.Len(t, bookings.got, 2)
}

// gatedAvailability отдает занятые слоты только после release
type gatedAvailability struct {
	claimed []types.TimeString
	started chan struct{}
	release chan struct{}
}

func newGatedAvailability(claimed ...types.TimeString) *gatedAvailability {
	return &gatedAvailability{
		claimed: claimed,
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (g *gatedAvailability) GetClaimedSlots(ctx context.Context, _ time.Time) ([]types.TimeString, error) {
	g.started <- struct{}{}
	select {
	case <-g.release:
		return g.claimed, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// gatedBookings отвечает на CreateLead только после release
type gatedBookings struct {
	err     error
	started chan struct{}
	release chan struct{}
}

func (g *gatedBookings) CreateLead(_ context.Context, _ leadapi.CreateLeadRequest) (*leadapi.Lead, error) {
	g.started <- struct{}{}
	<-g.release
	return nil, g.err
}

func TestController_SelectTime_BlockedWhileSlotsLoading(t *testing.T) {
	avail := newGatedAvailability(types.MustTimeString("10:00"))
	c := NewController(avail, &fakeBookings{}, fixedClock{now: today}, nopLogger{})

	done := make(chan error, 1)
	go func() { done <- c.SelectDate(context.Background(), monday) }()
	<-avail.started

	assert.True(t, c.State().Loading)
	assert.ErrorIs(t, c.SelectTime(types.MustTimeString("10:00")), ErrSlotsLoading)
	assert.ErrorIs(t, c.SelectTime(types.MustTimeString("11:00")), ErrSlotsLoading)

	close(avail.release)
	require.NoError(t, <-done)

	state := c.State()
	assert.False(t, state.Loading)
	assert.Equal(t, StageTime, state.Stage)
	assert.True(t, state.Time.IsZero())
	assert.ErrorIs(t, c.SelectTime(types.MustTimeString("10:00")), ErrSlotUnavailable)
	assert.NoError(t, c.SelectTime(types.MustTimeString("11:00")))
}

func TestController_SelectDate_StaleFetchKeepsLoading(t *testing.T) {
	first := newGatedAvailability(types.MustTimeString("10:00"))
	c := NewController(first, &fakeBookings{}, fixedClock{now: today}, nopLogger{})

	done := make(chan error, 1)
	go func() { done <- c.SelectDate(context.Background(), monday) }()
	<-first.started

	second := newGatedAvailability()
	c.availability = second
	secondDone := make(chan error, 1)
	go func() { secondDone <- c.SelectDate(context.Background(), monday.AddDate(0, 0, 1)) }()
	<-second.started

	close(first.release)
	require.NoError(t, <-done)
	assert.True(t, c.State().Loading, "response for the previous date does not finish loading")
	assert.ErrorIs(t, c.SelectTime(types.MustTimeString("11:00")), ErrSlotsLoading)

	close(second.release)
	require.NoError(t, <-secondDone)
	assert.False(t, c.State().Loading)
	assert.NoError(t, c.SelectTime(types.MustTimeString("10:00")))
}

func TestController_Submit_ConflictAfterDateChange(t *testing.T) {
	bookings := &gatedBookings{
		err:     fmt.Errorf("wrapped: %w", leadapi.ErrSlotAlreadyBooked),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	c := NewController(&fakeAvailability{}, bookings, fixedClock{now: today}, nopLogger{})
	fillForm(t, c, "10:00")

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		errCh <- err
	}()
	<-bookings.started

	tuesday := monday.AddDate(0, 0, 1)
	require.NoError(t, c.SelectDate(context.Background(), tuesday))

	close(bookings.release)
	require.ErrorIs(t, <-errCh, ErrSlotTaken)

	state := c.State()
	assert.Equal(t, tuesday, state.Date)
	assert.Empty(t, state.Message)
	assert.NoError(t, c.SelectTime(types.MustTimeString("10:00")), "conflict for the previous date does not mark the new one")
}
