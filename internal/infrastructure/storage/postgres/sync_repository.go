package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"wellnest/internal/domain/outbox"
	"wellnest/internal/domain/sync"
)

// SyncRepository реализация репозитория синхронизации для PostgreSQL
type SyncRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewSyncRepository создает новый репозиторий синхронизации
func NewSyncRepository(pool *pgxpool.Pool, log *slog.Logger) *SyncRepository {
	return &SyncRepository{
		pool: pool,
		log:  log.With(slog.String("component", "sync_repository")),
	}
}

// Apply применяет операцию и записывает ее id в applied_operations в одной транзакции
func (r *SyncRepository) Apply(ctx context.Context, userID string, op outbox.Operation) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.log.Error("failed to rollback", slog.Any("error", rbErr))
			}
		}
	}()

	const markQuery = `
		INSERT INTO applied_operations (user_id, operation_id, table_name, kind, client_ts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, operation_id) DO NOTHING`

	tag, err := tx.Exec(ctx, markQuery, userID, op.ID, op.Table, string(op.Operation), op.Timestamp)
	if err != nil {
		return mapError("mark operation", err)
	}
	if tag.RowsAffected() == 0 {
		return sync.ErrAlreadyApplied
	}

	switch op.Operation {
	case outbox.KindInsert:
		err = r.insert(ctx, tx, userID, op)
	case outbox.KindUpdate:
		err = r.update(ctx, tx, userID, op)
	case outbox.KindUpsert:
		err = r.upsert(ctx, tx, userID, op)
	case outbox.KindDelete:
		err = r.delete(ctx, tx, userID, op)
	default:
		err = fmt.Errorf("%w: %s", outbox.ErrInvalidOperation, op.Operation)
	}
	if err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return mapError("commit", err)
	}
	return nil
}

func (r *SyncRepository) insert(ctx context.Context, tx pgx.Tx, userID string, op outbox.Operation) error {
	data := make(map[string]any, len(op.Data)+1)
	for k, v := range op.Data {
		data[k] = v
	}

	rowID, ok := op.RowID()
	if !ok {
		rowID = uuid.NewString()
		data["id"] = rowID
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: %v", sync.ErrInvalidData, err)
	}

	const query = `
		INSERT INTO resource_rows (user_id, table_name, row_id, data)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (user_id, table_name, row_id) DO NOTHING`

	tag, err := tx.Exec(ctx, query, userID, op.Table, rowID, payload)
	if err != nil {
		return mapError("insert row", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s/%s", sync.ErrRowExists, op.Table, rowID)
	}
	return nil
}

func (r *SyncRepository) update(ctx context.Context, tx pgx.Tx, userID string, op outbox.Operation) error {
	rowID, _ := op.RowID()
	payload, err := json.Marshal(op.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", sync.ErrInvalidData, err)
	}

	const query = `
		UPDATE resource_rows
		SET data = data || $4::jsonb, updated_at = NOW()
		WHERE user_id = $1 AND table_name = $2 AND row_id = $3`

	tag, err := tx.Exec(ctx, query, userID, op.Table, rowID, payload)
	if err != nil {
		return mapError("update row", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s/%s", sync.ErrRowNotFound, op.Table, rowID)
	}
	return nil
}

func (r *SyncRepository) upsert(ctx context.Context, tx pgx.Tx, userID string, op outbox.Operation) error {
	rowID, _ := op.RowID()
	payload, err := json.Marshal(op.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", sync.ErrInvalidData, err)
	}

	const query = `
		INSERT INTO resource_rows (user_id, table_name, row_id, data)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (user_id, table_name, row_id) DO UPDATE
		SET data = resource_rows.data || EXCLUDED.data, updated_at = NOW()`

	if _, err := tx.Exec(ctx, query, userID, op.Table, rowID, payload); err != nil {
		return mapError("upsert row", err)
	}
	return nil
}

// delete идемпотентен: удаление отсутствующей строки не ошибка
func (r *SyncRepository) delete(ctx context.Context, tx pgx.Tx, userID string, op outbox.Operation) error {
	rowID, _ := op.RowID()

	const query = `DELETE FROM resource_rows WHERE user_id = $1 AND table_name = $2 AND row_id = $3`

	if _, err := tx.Exec(ctx, query, userID, op.Table, rowID); err != nil {
		return mapError("delete row", err)
	}
	return nil
}

// ListRows возвращает строки ресурса пользователя в порядке создания
func (r *SyncRepository) ListRows(ctx context.Context, userID, table string) ([]sync.Row, error) {
	const query = `
		SELECT row_id, data, created_at, updated_at
		FROM resource_rows
		WHERE user_id = $1 AND table_name = $2
		ORDER BY created_at, row_id`

	rows, err := r.pool.Query(ctx, query, userID, table)
	if err != nil {
		r.log.Error("failed to list rows", slog.String("table", table), slog.Any("error", err))
		return nil, fmt.Errorf("list rows: %w", err)
	}
	defer rows.Close()

	result := make([]sync.Row, 0)
	for rows.Next() {
		var (
			row     sync.Row
			payload []byte
		)
		if err := rows.Scan(&row.ID, &payload, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal(payload, &row.Data); err != nil {
			return nil, fmt.Errorf("decode row %s: %w", row.ID, err)
		}
		row.Table = table
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// mapError переводит ошибки данных PostgreSQL в постоянные доменные ошибки
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return fmt.Errorf("%s: %w: %w", op, sync.ErrRowExists, err)
		case len(pgErr.Code) == 5 && pgErr.Code[:2] == "22":
			return fmt.Errorf("%s: %w: %w", op, sync.ErrInvalidData, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
