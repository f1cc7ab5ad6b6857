package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/AgencyBookingService/internal/domain"
	"github.com/m04kA/AgencyBookingService/internal/events"
	bookingRepo "github.com/m04kA/AgencyBookingService/internal/infra/storage/booking"
	"github.com/m04kA/AgencyBookingService/internal/integrations/googlecalendar"
	"github.com/m04kA/AgencyBookingService/pkg/ptr"
	"github.com/m04kA/AgencyBookingService/pkg/types"
)

type fakeRepo struct {
	bookings map[int64]*domain.Booking
	locks    *leadLocks
	lockErr  error
	getErr   error
	setErr   error
}

func (r *fakeRepo) TryLockLead(ctx context.Context, id int64) (bool, error) {
	if r.lockErr != nil {
		return false, r.lockErr
	}
	tx, ok := ctx.Value(txKey{}).(*fakeTx)
	if !ok {
		return false, bookingRepo.ErrNotInTransaction
	}
	return r.locks.tryLock(tx, id), nil
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeRepo) SetExternalEventRef(_ context.Context, id int64, ref *string) error {
	if r.setErr != nil {
		return r.setErr
	}
	r.bookings[id].ExternalEventRef = ref
	return nil
}

// leadLocks advisory-блокировки заявок, живущие до конца транзакции
type leadLocks struct {
	mu     sync.Mutex
	owners map[int64]*fakeTx
}

func (l *leadLocks) tryLock(tx *fakeTx, id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if owner, ok := l.owners[id]; ok && owner != tx {
		return false
	}
	l.owners[id] = tx
	return true
}

func (l *leadLocks) release(tx *fakeTx) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, owner := range l.owners {
		if owner == tx {
			delete(l.owners, id)
		}
	}
}

type txKey struct{}

type fakeTx struct{}

type fakeTxManager struct {
	locks     *leadLocks
	commitErr error
}

func (m *fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	tx := &fakeTx{}
	defer m.locks.release(tx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return m.commitErr
}

type fakeCalendar struct {
	events    map[string]googlecalendar.Event
	nextID    int
	writes    int
	deletes   int
	createErr error
	getErr    error
	deleteErr error
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{events: make(map[string]googlecalendar.Event)}
}

func (c *fakeCalendar) CreateEvent(_ context.Context, input googlecalendar.EventInput) (string, error) {
	if c.createErr != nil {
		return "", c.createErr
	}
	c.nextID++
	c.writes++
	id := fmt.Sprintf("evt-%d", c.nextID)
	c.events[id] = googlecalendar.Event{ID: id, Summary: input.Summary, Description: input.Description, Start: input.Start, End: input.End}
	return id, nil
}

func (c *fakeCalendar) GetEvent(_ context.Context, id string) (*googlecalendar.Event, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	ev, ok := c.events[id]
	if !ok {
		return nil, googlecalendar.ErrEventNotFound
	}
	return &ev, nil
}

func (c *fakeCalendar) UpdateEvent(_ context.Context, id string, input googlecalendar.EventInput) error {
	if _, ok := c.events[id]; !ok {
		return googlecalendar.ErrEventNotFound
	}
	c.writes++
	c.events[id] = googlecalendar.Event{ID: id, Summary: input.Summary, Description: input.Description, Start: input.Start, End: input.End}
	return nil
}

func (c *fakeCalendar) DeleteEvent(_ context.Context, id string) error {
	if c.deleteErr != nil {
		return c.deleteErr
	}
	if _, ok := c.events[id]; !ok {
		return googlecalendar.ErrEventNotFound
	}
	c.deletes++
	delete(c.events, id)
	return nil
}

type fakeMetrics struct {
	fatal int
}

func (m *fakeMetrics) IncCalendarSync(string, string) {}
func (m *fakeMetrics) IncCalendarSyncFatal()          { m.fatal++ }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

var almaty = time.FixedZone("Asia/Almaty", 5*60*60)

func confirmedLead() *domain.Booking {
	return &domain.Booking{
		ID:          1,
		Name:        "Aigerim",
		Phone:       "77011234567",
		MeetingDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		MeetingTime: types.MustTimeString("10:00"),
		Status:      domain.StatusConfirmed,
		Notes:       ptr.Ptr("wedding"),
	}
}

func newFixture(b *domain.Booking) (*Reconciler, *fakeRepo, *fakeCalendar, *fakeMetrics) {
	r, repo, cal, metrics, _ := newTxFixture(b, newFakeCalendar())
	return r, repo, cal, metrics
}

func newTxFixture(b *domain.Booking, cal CalendarClient) (*Reconciler, *fakeRepo, *fakeCalendar, *fakeMetrics, *fakeTxManager) {
	locks := &leadLocks{owners: make(map[int64]*fakeTx)}
	repo := &fakeRepo{bookings: map[int64]*domain.Booking{b.ID: b}, locks: locks}
	tx := &fakeTxManager{locks: locks}
	metrics := &fakeMetrics{}

	var underlying *fakeCalendar
	switch c := cal.(type) {
	case *fakeCalendar:
		underlying = c
	case *gatedCalendar:
		underlying = c.fakeCalendar
	}
	return NewReconciler(repo, tx, cal, metrics, nopLogger{}, almaty, time.Hour), repo, underlying, metrics, tx
}

// gatedCalendar задерживает CreateEvent до release
type gatedCalendar struct {
	*fakeCalendar
	started chan struct{}
	release chan struct{}
}

func (c *gatedCalendar) CreateEvent(ctx context.Context, input googlecalendar.EventInput) (string, error) {
	c.started <- struct{}{}
	<-c.release
	return c.fakeCalendar.CreateEvent(ctx, input)
}

func TestBuildEventInput(t *testing.T) {
	input := BuildEventInput(confirmedLead(), almaty, time.Hour)

	assert.Equal(t, "Встреча: Aigerim", input.Summary)
	assert.Equal(t, "Телефон: +77011234567\nЗаметки: wedding", input.Description)
	assert.True(t, input.Start.Equal(time.Date(2025, 3, 10, 5, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Hour, input.End.Sub(input.Start))

	b := confirmedLead()
	b.Notes = nil
	assert.Equal(t, "Телефон: +77011234567", BuildEventInput(b, almaty, time.Hour).Description)
}

func TestReconciler_Sync_CreatesEventOnConfirm(t *testing.T) {
	r, repo, cal, _ := newFixture(confirmedLead())

	action, err := r.Sync(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, ActionCreated, action)
	require.NotNil(t, repo.bookings[1].ExternalEventRef)
	assert.Contains(t, cal.events, *repo.bookings[1].ExternalEventRef)
}

func TestReconciler_Sync_IsIdempotent(t *testing.T) {
	r, repo, cal, _ := newFixture(confirmedLead())

	_, err := r.Sync(context.Background(), 1)
	require.NoError(t, err)
	ref := *repo.bookings[1].ExternalEventRef

	for i := 0; i < 3; i++ {
		action, err := r.Sync(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, ActionNone, action)
	}

	assert.Len(t, cal.events, 1)
	assert.Equal(t, 1, cal.writes)
	assert.Equal(t, ref, *repo.bookings[1].ExternalEventRef)
}

func TestReconciler_Sync_RecreatesDeletedEvent(t *testing.T) {
	r, repo, cal, _ := newFixture(confirmedLead())

	_, err := r.Sync(context.Background(), 1)
	require.NoError(t, err)
	oldRef := *repo.bookings[1].ExternalEventRef
	delete(cal.events, oldRef)

	action, err := r.Sync(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, ActionRelinked, action)
	newRef := *repo.bookings[1].ExternalEventRef
	assert.NotEqual(t, oldRef, newRef)
	assert.Contains(t, cal.events, newRef)
}

func TestReconciler_Sync_UpdatesDriftedEvent(t *testing.T) {
	r, repo, cal, _ := newFixture(confirmedLead())

	_, err := r.Sync(context.Background(), 1)
	require.NoError(t, err)
	ref := *repo.bookings[1].ExternalEventRef

	drifted := cal.events[ref]
	drifted.Summary = "edited by hand"
	drifted.Start = drifted.Start.Add(30 * time.Minute)
	cal.events[ref] = drifted

	action, err := r.Sync(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, ActionUpdated, action)
	assert.Equal(t, "Встреча: Aigerim", cal.events[ref].Summary)
	assert.Equal(t, ref, *repo.bookings[1].ExternalEventRef)
}

func TestReconciler_Sync_RepairsAllDayEvent(t *testing.T) {
	r, repo, cal, _ := newFixture(confirmedLead())

	_, err := r.Sync(context.Background(), 1)
	require.NoError(t, err)
	ref := *repo.bookings[1].ExternalEventRef
	want := cal.events[ref]

	// так клиент календаря читает событие "на весь день"
	allDay := want
	allDay.Start = time.Date(2025, 3, 10, 0, 0, 0, 0, almaty)
	allDay.End = allDay.Start.AddDate(0, 0, 1)
	cal.events[ref] = allDay

	action, err := r.Sync(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, ActionUpdated, action)
	assert.True(t, cal.events[ref].Start.Equal(want.Start))
	assert.True(t, cal.events[ref].End.Equal(want.End))
	assert.Equal(t, ref, *repo.bookings[1].ExternalEventRef)
}

func TestReconciler_Sync_SameInstantInOtherZoneIsNotDrift(t *testing.T) {
	r, repo, cal, _ := newFixture(confirmedLead())

	_, err := r.Sync(context.Background(), 1)
	require.NoError(t, err)
	ref := *repo.bookings[1].ExternalEventRef

	ev := cal.events[ref]
	ev.Start = ev.Start.UTC()
	ev.End = ev.End.UTC()
	cal.events[ref] = ev

	action, err := r.Sync(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ActionNone, action)
}

func TestReconciler_Sync_CancelDeletesEvent(t *testing.T) {
	r, repo, cal, _ := newFixture(confirmedLead())

	_, err := r.Sync(context.Background(), 1)
	require.NoError(t, err)

	repo.bookings[1].Status = domain.StatusCancelled

	action, err := r.Sync(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ActionDeleted, action)
	assert.Empty(t, cal.events)
	assert.Nil(t, repo.bookings[1].ExternalEventRef)
}

func TestReconciler_Sync_CancelToleratesMissingEvent(t *testing.T) {
	b := confirmedLead()
	b.Status = domain.StatusCancelled
	b.ExternalEventRef = ptr.Ptr("evt-gone")
	r, repo, _, _ := newFixture(b)

	action, err := r.Sync(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ActionDeleted, action)
	assert.Nil(t, repo.bookings[1].ExternalEventRef)
}

func TestReconciler_Sync_PendingWithoutEventIsNoop(t *testing.T) {
	b := confirmedLead()
	b.Status = domain.StatusPending
	r, _, cal, _ := newFixture(b)

	action, err := r.Sync(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ActionNone, action)
	assert.Zero(t, cal.writes)
}

func TestReconciler_Sync_RefNotStoredIsFatal(t *testing.T) {
	r, repo, _, metrics := newFixture(confirmedLead())
	repo.setErr = errors.New("db down")

	_, err := r.Sync(context.Background(), 1)
	assert.ErrorIs(t, err, ErrFatalSyncInconsistency)
	assert.ErrorIs(t, err, events.ErrFatal)
	assert.Equal(t, 1, metrics.fatal)
}

func TestReconciler_Sync_TransientErrors(t *testing.T) {
	t.Run("create fails", func(t *testing.T) {
		r, repo, cal, _ := newFixture(confirmedLead())
		cal.createErr = googlecalendar.ErrRequestFailed

		_, err := r.Sync(context.Background(), 1)
		assert.ErrorIs(t, err, ErrTransientSync)
		assert.NotErrorIs(t, err, events.ErrFatal)
		assert.Nil(t, repo.bookings[1].ExternalEventRef)
	})

	t.Run("delete fails", func(t *testing.T) {
		b := confirmedLead()
		b.Status = domain.StatusCancelled
		b.ExternalEventRef = ptr.Ptr("evt-1")
		r, repo, cal, _ := newFixture(b)
		cal.deleteErr = googlecalendar.ErrRequestFailed

		_, err := r.Sync(context.Background(), 1)
		assert.ErrorIs(t, err, ErrTransientSync)
		assert.Equal(t, "evt-1", ptr.Value(repo.bookings[1].ExternalEventRef))
	})

	t.Run("storage read fails", func(t *testing.T) {
		r, repo, _, _ := newFixture(confirmedLead())
		repo.getErr = errors.New("timeout")

		_, err := r.Sync(context.Background(), 1)
		assert.ErrorIs(t, err, ErrTransientSync)
	})
}

func TestReconciler_Sync_ConcurrentSyncOfSameLeadCreatesOneEvent(t *testing.T) {
	cal := &gatedCalendar{
		fakeCalendar: newFakeCalendar(),
		started:      make(chan struct{}, 1),
		release:      make(chan struct{}),
	}
	r, repo, underlying, _, _ := newTxFixture(confirmedLead(), cal)

	type result struct {
		action Action
		err    error
	}
	first := make(chan result, 1)
	go func() {
		action, err := r.Sync(context.Background(), 1)
		first <- result{action, err}
	}()
	<-cal.started

	_, err := r.Sync(context.Background(), 1)
	require.ErrorIs(t, err, ErrLeadBusy)
	assert.ErrorIs(t, err, ErrTransientSync)
	assert.NotErrorIs(t, err, events.ErrFatal)

	close(cal.release)
	res := <-first
	require.NoError(t, res.err)
	assert.Equal(t, ActionCreated, res.action)

	action, err := r.Sync(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ActionNone, action)
	assert.Len(t, underlying.events, 1)
	assert.Equal(t, "evt-1", ptr.Value(repo.bookings[1].ExternalEventRef))
}

func TestReconciler_Sync_CommitFailure(t *testing.T) {
	t.Run("after create is fatal", func(t *testing.T) {
		r, _, _, metrics, tx := newTxFixture(confirmedLead(), newFakeCalendar())
		tx.commitErr = errors.New("connection lost")

		action, err := r.Sync(context.Background(), 1)
		assert.Equal(t, ActionCreated, action)
		assert.ErrorIs(t, err, ErrFatalSyncInconsistency)
		assert.Equal(t, 1, metrics.fatal)
	})

	t.Run("without reference change is retryable", func(t *testing.T) {
		r, repo, cal, metrics, tx := newTxFixture(confirmedLead(), newFakeCalendar())
		_, err := r.Sync(context.Background(), 1)
		require.NoError(t, err)

		ref := *repo.bookings[1].ExternalEventRef
		drifted := cal.events[ref]
		drifted.Summary = "edited by hand"
		cal.events[ref] = drifted
		tx.commitErr = errors.New("connection lost")

		action, err := r.Sync(context.Background(), 1)
		assert.Equal(t, ActionUpdated, action)
		assert.ErrorIs(t, err, ErrTransientSync)
		assert.NotErrorIs(t, err, events.ErrFatal)
		assert.Zero(t, metrics.fatal)
	})

	t.Run("lock query fails", func(t *testing.T) {
		r, repo, cal, _ := newFixture(confirmedLead())
		repo.lockErr = errors.New("timeout")

		_, err := r.Sync(context.Background(), 1)
		assert.ErrorIs(t, err, ErrTransientSync)
		assert.Empty(t, cal.events)
	})
}

func TestReconciler_HandleLeadEvent_MissingLead(t *testing.T) {
	r, _, _, _ := newFixture(confirmedLead())

	assert.NoError(t, r.HandleLeadEvent(context.Background(), events.Event{LeadID: 404}))
}
