package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/AgencyBookingService/pkg/dbmetrics"
	"github.com/m04kA/AgencyBookingService/pkg/psqlbuilder"
)

const tableOutbox = "lead_outbox"

// Entry событие, ожидающее доставки подписчикам
type Entry struct {
	ID        uuid.UUID
	LeadID    int64
	Type      string
	Payload   json.RawMessage
	Attempts  int
	CreatedAt time.Time
}

// claimQuery захватывает пачку готовых к доставке событий на время lease
// Блокировка строк живет только внутри этого запроса: внешние вызовы выполняются уже без неё.
// События заявки, у которой есть захваченное другим воркером событие, пропускаются.
// Гарантии для конкурентных claim нет: подписчики сами сериализуют обработку одной заявки
// (calendarsync держит advisory-блокировку заявки на время синхронизации)
const claimQuery = `
UPDATE lead_outbox
SET locked_until = NOW() + make_interval(secs => $2)
WHERE id IN (
    SELECT o.id
    FROM lead_outbox o
    WHERE o.delivered_at IS NULL
      AND o.dead_at IS NULL
      AND o.next_attempt_at <= NOW()
      AND (o.locked_until IS NULL OR o.locked_until < NOW())
      AND NOT EXISTS (
          SELECT 1
          FROM lead_outbox l
          WHERE l.lead_id = o.lead_id
            AND l.id <> o.id
            AND l.delivered_at IS NULL
            AND l.dead_at IS NULL
            AND l.locked_until >= NOW()
      )
    ORDER BY o.created_at
    LIMIT $1
    FOR UPDATE SKIP LOCKED
)
RETURNING id, lead_id, event_type, payload, attempts, created_at`

// Repository хранилище outbox-событий по заявкам
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает репозиторий outbox
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Insert добавляет событие
// Вызывается в той же транзакции, что и изменение заявки, поэтому событие не теряется
func (r *Repository) Insert(ctx context.Context, leadID int64, eventType string, payload interface{}) (uuid.UUID, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	data, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrMarshalPayload, err)
	}

	id := uuid.New()
	query, args, err := psqlbuilder.Insert(tableOutbox).
		Columns("id", "lead_id", "event_type", "payload").
		Values(id, leadID, eventType, data).
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: Insert - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return uuid.Nil, fmt.Errorf("%w: Insert - execute insert: %v", ErrExecQuery, err)
	}

	return id, nil
}

// ClaimPending захватывает до limit событий на время lease
func (r *Repository) ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]Entry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	rows, err := executor.QueryContext(ctx, claimQuery, limit, lease.Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: ClaimPending - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var entry Entry
		var payload []byte
		if err := rows.Scan(&entry.ID, &entry.LeadID, &entry.Type, &payload, &entry.Attempts, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: ClaimPending - scan row: %v", ErrScanRow, err)
		}
		entry.Payload = append([]byte(nil), payload...)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ClaimPending - rows error: %v", ErrScanRow, err)
	}

	return entries, nil
}

// MarkDelivered помечает события доставленными
func (r *Repository) MarkDelivered(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := psqlbuilder.Update(tableOutbox).
		Set("delivered_at", squirrel.Expr("NOW()")).
		Set("locked_until", nil).
		Where(squirrel.Eq{"id": ids}).
		Where(squirrel.Eq{"delivered_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkDelivered - build update query: %v", ErrBuildQuery, err)
	}

	return r.exec(ctx, "MarkDelivered", query, args)
}

// Reschedule откладывает повторную доставку события
func (r *Repository) Reschedule(ctx context.Context, id uuid.UUID, nextAttemptAt time.Time, lastError string) error {
	query, args, err := psqlbuilder.Update(tableOutbox).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", lastError).
		Set("next_attempt_at", nextAttemptAt).
		Set("locked_until", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Reschedule - build update query: %v", ErrBuildQuery, err)
	}

	return r.exec(ctx, "Reschedule", query, args)
}

// MarkDead снимает событие с доставки (неустранимая ошибка, нужен оператор)
func (r *Repository) MarkDead(ctx context.Context, id uuid.UUID, lastError string) error {
	query, args, err := psqlbuilder.Update(tableOutbox).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", lastError).
		Set("dead_at", squirrel.Expr("NOW()")).
		Set("locked_until", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkDead - build update query: %v", ErrBuildQuery, err)
	}

	return r.exec(ctx, "MarkDead", query, args)
}

func (r *Repository) exec(ctx context.Context, op string, query string, args []interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}
	return nil
}
