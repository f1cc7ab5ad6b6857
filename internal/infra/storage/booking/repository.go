package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/AgencyBookingService/internal/domain"
	"github.com/m04kA/AgencyBookingService/pkg/dbmetrics"
	"github.com/m04kA/AgencyBookingService/pkg/psqlbuilder"
	"github.com/m04kA/AgencyBookingService/pkg/types"
)

const (
	tableLeads = "leads"

	// slotConstraint частичный уникальный индекс по (meeting_date, meeting_time) для pending/confirmed
	slotConstraint = "leads_active_slot_uniq"

	pgUniqueViolation = "23505"
)

var leadColumns = []string{
	"id",
	"name",
	"phone",
	"meeting_date",
	"meeting_time",
	"status",
	"notes",
	"external_event_ref",
	"created_at",
	"updated_at",
}

// Repository репозиторий заявок на встречи
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новую заявку
// Конфликт слота определяется уникальным индексом БД, а не предварительной проверкой:
// два конкурентных запроса на один слот разрешаются атомарно на уровне хранилища
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableLeads).
		Columns(
			"name",
			"phone",
			"meeting_date",
			"meeting_time",
			"status",
			"notes",
		).
		Values(
			booking.Name,
			booking.Phone,
			domain.DateOnly(booking.MeetingDate),
			booking.MeetingTime,
			booking.Status,
			booking.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)

	if isSlotConflict(err) {
		return nil, ErrSlotAlreadyBooked
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// ExistsActiveBySlot проверяет, занят ли слот неотмененной заявкой
func (r *Repository) ExistsActiveBySlot(ctx context.Context, date time.Time, meetingTime types.TimeString) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("1").
		From(tableLeads).
		Where(squirrel.Eq{
			"meeting_date": domain.DateOnly(date),
			"meeting_time": meetingTime,
			"status":       domain.ActiveStatusStrings(),
		}).
		Limit(1).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: ExistsActiveBySlot - build select query: %v", ErrBuildQuery, err)
	}

	var exists int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: ExistsActiveBySlot - scan: %v", ErrScanRow, err)
	}

	return true, nil
}

// GetByID получает заявку по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate получает заявку с блокировкой строки (только внутри транзакции)
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	if !dbmetrics.IsInTransaction(ctx) {
		return nil, ErrNotInTransaction
	}
	return r.getByID(ctx, id, true)
}

// TryLockLead пытается взять advisory-блокировку заявки (только внутри транзакции)
// Блокировка снимается при завершении транзакции, строка заявки не блокируется
func (r *Repository) TryLockLead(ctx context.Context, id int64) (bool, error) {
	if !dbmetrics.IsInTransaction(ctx) {
		return false, ErrNotInTransaction
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select().
		Column(squirrel.Expr("pg_try_advisory_xact_lock(?)", id)).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: TryLockLead - build select query: %v", ErrBuildQuery, err)
	}

	var locked bool
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&locked); err != nil {
		return false, fmt.Errorf("%w: TryLockLead - scan: %v", ErrScanRow, err)
	}

	return locked, nil
}

func (r *Repository) getByID(ctx context.Context, id int64, forUpdate bool) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(leadColumns...).
		From(tableLeads).
		Where(squirrel.Eq{"id": id})

	if forUpdate {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// ListByDate получает заявки на дату, отсортированные по времени
// Без IncludeCancelled возвращает только заявки, занимающие слот
func (r *Repository) ListByDate(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(leadColumns...).
		From(tableLeads).
		Where(squirrel.Eq{"meeting_date": domain.DateOnly(filter.Date)}).
		OrderBy("meeting_time ASC", "id ASC")

	if !filter.IncludeCancelled {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": domain.ActiveStatusStrings()})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByDate - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByDate - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

// UpdateStatus обновляет статус заявки
// Возврат из cancelled в pending может упереться в уникальный индекс, если слот уже занят
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	query, args, err := psqlbuilder.Update(tableLeads).
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	return r.execUpdate(ctx, "UpdateStatus", query, args)
}

// UpdateNotes обновляет заметки (nil очищает)
func (r *Repository) UpdateNotes(ctx context.Context, id int64, notes *string) error {
	query, args, err := psqlbuilder.Update(tableLeads).
		Set("notes", notes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateNotes - build update query: %v", ErrBuildQuery, err)
	}

	return r.execUpdate(ctx, "UpdateNotes", query, args)
}

// SetExternalEventRef сохраняет (или очищает при nil) ссылку на событие внешнего календаря
func (r *Repository) SetExternalEventRef(ctx context.Context, id int64, ref *string) error {
	query, args, err := psqlbuilder.Update(tableLeads).
		Set("external_event_ref", ref).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SetExternalEventRef - build update query: %v", ErrBuildQuery, err)
	}

	return r.execUpdate(ctx, "SetExternalEventRef", query, args)
}

func (r *Repository) execUpdate(ctx context.Context, op string, query string, args []interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	result, err := executor.ExecContext(ctx, query, args...)
	if isSlotConflict(err) {
		return ErrSlotAlreadyBooked
	}
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.Name,
		&booking.Phone,
		&booking.MeetingDate,
		&booking.MeetingTime,
		&booking.Status,
		&booking.Notes,
		&booking.ExternalEventRef,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.MeetingDate = domain.DateOnly(booking.MeetingDate)
	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

// isSlotConflict распознает нарушение уникального индекса слота
func isSlotConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == pgUniqueViolation && pqErr.Constraint == slotConstraint
}
