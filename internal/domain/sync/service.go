package sync

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"wellnest/internal/app/server/api/http/middleware/auth"
	"wellnest/internal/domain/outbox"
)

const defaultMaxBatchSize = 1000

// Servicer интерфейс сервиса синхронизации
type Servicer interface {
	// ProcessBatch применяет пакет операций по порядку
	ProcessBatch(ctx context.Context, req outbox.SyncRequest) (*outbox.SyncResult, error)

	// ListRows возвращает строки ресурса текущего пользователя
	ListRows(ctx context.Context, table string) (*ListRowsResponse, error)
}

// Service реализация сервиса синхронизации
type Service struct {
	repo   Repository
	ledger Ledger
	log    *slog.Logger
	config *ServiceConfig
}

// NewService создает новый сервис синхронизации
func NewService(repo Repository, ledger Ledger, log *slog.Logger, config *ServiceConfig) *Service {
	if config == nil {
		config = &ServiceConfig{MaxBatchSize: defaultMaxBatchSize}
	}
	if ledger == nil {
		ledger = NoopLedger{}
	}

	return &Service{
		repo:   repo,
		ledger: ledger,
		log:    log.With(slog.String("component", "sync_service")),
		config: config,
	}
}

// ProcessBatch применяет операции в порядке очереди клиента.
// Уже примененная операция считается синхронизированной. Временный сбой на строке
// задерживает все последующие операции над той же строкой, они возвращаются в remaining.
// Операции с постоянной ошибкой считаются неудачными и не возвращаются.
// Операции сверх MaxBatchSize не применяются и не учитываются в счетчиках,
// они возвращаются в remaining, чтобы клиент отправил их следующим пакетом.
func (s *Service) ProcessBatch(ctx context.Context, req outbox.SyncRequest) (*outbox.SyncResult, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	ops, deferred := req.Operations, []outbox.Operation(nil)
	if len(ops) > s.config.MaxBatchSize {
		ops, deferred = ops[:s.config.MaxBatchSize], ops[s.config.MaxBatchSize:]
	}

	result := &outbox.SyncResult{Remaining: []outbox.Operation{}}
	blocked := make(map[string]struct{})

	for _, op := range ops {
		row := rowKey(op)

		if ctx.Err() != nil {
			result.Failed++
			result.Remaining = append(result.Remaining, op)
			continue
		}

		if _, held := blocked[row]; held && row != "" {
			result.Failed++
			result.Remaining = append(result.Remaining, op)
			continue
		}

		err := s.apply(ctx, userID, op)
		switch {
		case err == nil:
			result.Synced++
		case errors.Is(err, outbox.ErrInvalidOperation), errors.Is(err, outbox.ErrMissingRowID), permanent(err):
			result.Failed++
			s.log.Warn("operation rejected",
				slog.String("id", op.ID),
				slog.String("table", op.Table),
				slog.String("operation", string(op.Operation)),
				slog.Any("error", err),
			)
		default:
			result.Failed++
			result.Remaining = append(result.Remaining, op)
			if row != "" {
				blocked[row] = struct{}{}
			}
			s.log.Error("failed to apply operation",
				slog.String("id", op.ID),
				slog.Any("error", err),
			)
		}
	}

	// хвост сверх лимита не применяется и уходит в remaining после всех остальных,
	// порядок очереди сохраняется
	result.Remaining = append(result.Remaining, deferred...)

	s.log.Info("batch processed",
		slog.String("user_id", userID),
		slog.Int("synced", result.Synced),
		slog.Int("failed", result.Failed),
		slog.Int("remaining", len(result.Remaining)),
		slog.Int("deferred", len(deferred)),
	)

	return result, nil
}

func (s *Service) apply(ctx context.Context, userID string, op outbox.Operation) error {
	if err := outbox.ValidateOperation(op); err != nil {
		return err
	}

	seen, err := s.ledger.Seen(ctx, userID, op.ID)
	if err != nil {
		s.log.Warn("ledger lookup failed", slog.Any("error", err))
	}
	if seen {
		return nil
	}

	err = s.repo.Apply(ctx, userID, op)
	if errors.Is(err, ErrAlreadyApplied) {
		err = nil
	}
	if err != nil {
		return err
	}

	if err := s.ledger.Mark(ctx, userID, op.ID); err != nil {
		s.log.Warn("failed to mark operation in ledger", slog.Any("error", err))
	}
	return nil
}

// ListRows возвращает строки ресурса текущего пользователя
func (s *Service) ListRows(ctx context.Context, table string) (*ListRowsResponse, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	if !outbox.IsKnownTable(table) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	rows, err := s.repo.ListRows(ctx, userID, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}
	if rows == nil {
		rows = []Row{}
	}

	return &ListRowsResponse{Data: rows}, nil
}

func rowKey(op outbox.Operation) string {
	id, ok := op.RowID()
	if !ok {
		return ""
	}
	return op.Table + "/" + id
}
