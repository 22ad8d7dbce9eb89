package sync

import (
	"context"

	"wellnest/internal/domain/outbox"
)

// Repository хранилище строк и журнала примененных операций
type Repository interface {
	// Apply применяет операцию и отмечает ее id примененным в одной транзакции.
	// Повтор уже примененной операции возвращает ErrAlreadyApplied.
	Apply(ctx context.Context, userID string, op outbox.Operation) error
	ListRows(ctx context.Context, userID, table string) ([]Row, error)
}

// Ledger быстрый журнал id примененных операций
type Ledger interface {
	Seen(ctx context.Context, userID, opID string) (bool, error)
	Mark(ctx context.Context, userID, opID string) error
}

// NoopLedger используется, когда Redis не настроен
type NoopLedger struct{}

func (NoopLedger) Seen(context.Context, string, string) (bool, error) { return false, nil }
func (NoopLedger) Mark(context.Context, string, string) error { return nil }
