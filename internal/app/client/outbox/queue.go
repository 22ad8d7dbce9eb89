// Package outbox хранит упорядоченную очередь отложенных операций записи
// и отправляет ее на сервер одним пакетом.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"wellnest/internal/app/client/kvstore"
	domain "wellnest/internal/domain/outbox"
)

const storeKey = "operations"

// Remote - эндпоинт синхронизации, принимающий пакет операций
type Remote interface {
	PushOperations(ctx context.Context, ops []domain.Operation) (*domain.SyncResult, error)
}

// FlushResult итог отправки очереди
type FlushResult struct {
	Synced int
	Failed int
}

type Queue struct {
	store  kvstore.Store
	remote Remote
	log    *slog.Logger
	now    func() time.Time

	// mu сериализует чтение-изменение-запись очереди в хранилище
	mu     sync.Mutex
	lastTS time.Time

	flushMu sync.Mutex
}

func NewQueue(store kvstore.Store, remote Remote, log *slog.Logger) *Queue {
	return &Queue{
		store:  store,
		remote: remote,
		log:    log.With(slog.String("component", "outbox")),
		now:    time.Now,
	}
}

// Get возвращает очередь целиком. Отсутствие ключа или ошибка чтения дают пустую очередь.
func (q *Queue) Get(ctx context.Context) []domain.Operation {
	q.mu.Lock()
	defer q.mu.Unlock()

	ops, err := q.read(ctx)
	if err != nil {
		q.log.Warn("failed to read outbox", slog.Any("error", err))
		return []domain.Operation{}
	}
	return ops
}

// Len количество операций в очереди
func (q *Queue) Len(ctx context.Context) int {
	return len(q.Get(ctx))
}

// Enqueue добавляет операцию в конец очереди и сохраняет очередь целиком
func (q *Queue) Enqueue(ctx context.Context, req domain.EnqueueRequest) (*domain.Operation, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	ops, err := q.read(ctx)
	if err != nil {
		// Нечитаемую очередь не перезаписываем
		return nil, fmt.Errorf("ошибка чтения очереди: %w", err)
	}

	ts := q.now().UTC()
	if n := len(ops); n > 0 && ts.Before(ops[n-1].Timestamp) {
		ts = ops[n-1].Timestamp
	}
	if ts.Before(q.lastTS) {
		ts = q.lastTS
	}

	op := domain.Operation{
		ID:        uuid.NewString(),
		Table:     req.Table,
		Operation: req.Operation,
		Data:      req.Data,
		Timestamp: ts,
	}

	if err := q.write(ctx, append(ops, op)); err != nil {
		return nil, fmt.Errorf("ошибка сохранения очереди: %w", err)
	}
	q.lastTS = ts

	q.log.Debug("operation enqueued",
		slog.String("id", op.ID),
		slog.String("table", op.Table),
		slog.String("operation", string(op.Operation)),
	)

	return &op, nil
}

// Flush отправляет всю очередь одним пакетом и заменяет ее остатком,
// который вернул сервер. При ошибке транспорта очередь не меняется.
func (q *Queue) Flush(ctx context.Context) FlushResult {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	batch := q.Get(ctx)
	if len(batch) == 0 {
		return FlushResult{}
	}

	res, err := q.remote.PushOperations(ctx, batch)
	if err != nil {
		q.log.Warn("outbox flush failed",
			slog.Int("operations", len(batch)),
			slog.Any("error", err),
		)
		return FlushResult{Failed: len(batch)}
	}

	remaining := res.Remaining
	if remaining == nil {
		remaining = batch
	}

	if err := q.replace(ctx, batch, remaining); err != nil {
		q.log.Error("failed to store outbox remainder", slog.Any("error", err))
	}

	q.log.Info("outbox flushed",
		slog.Int("synced", res.Synced),
		slog.Int("failed", res.Failed),
		slog.Int("remaining", len(remaining)),
	)

	return FlushResult{Synced: res.Synced, Failed: res.Failed}
}

// replace сохраняет остаток и операции, добавленные во время отправки пакета
func (q *Queue) replace(ctx context.Context, batch, remaining []domain.Operation) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	sent := make(map[string]struct{}, len(batch))
	for _, op := range batch {
		sent[op.ID] = struct{}{}
	}

	current, err := q.read(ctx)
	if err != nil {
		return err
	}

	next := make([]domain.Operation, 0, len(remaining)+len(current))
	next = append(next, remaining...)
	for _, op := range current {
		if _, ok := sent[op.ID]; !ok {
			next = append(next, op)
		}
	}

	return q.write(ctx, next)
}

func (q *Queue) read(ctx context.Context) ([]domain.Operation, error) {
	raw, err := q.store.Get(ctx, kvstore.PartitionOutbox, storeKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []domain.Operation{}, nil
	}
	if err != nil {
		return nil, err
	}

	var ops []domain.Operation
	if err := json.Unmarshal([]byte(raw), &ops); err != nil {
		return nil, fmt.Errorf("ошибка десериализации очереди: %w", err)
	}
	if ops == nil {
		ops = []domain.Operation{}
	}
	return ops, nil
}

func (q *Queue) write(ctx context.Context, ops []domain.Operation) error {
	raw, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("ошибка сериализации очереди: %w", err)
	}
	return q.store.Set(ctx, kvstore.PartitionOutbox, storeKey, string(raw))
}
