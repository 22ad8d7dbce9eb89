package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const ledgerPrefix = "wellnest:applied:"

// Ledger журнал id примененных операций в Redis.
// Источник истины остается в PostgreSQL, Ledger только отсекает повторы до транзакции.
type Ledger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLedger подключается к Redis по URL вида redis://host:port/db
func NewLedger(ctx context.Context, redisURL string, ttl time.Duration) (*Ledger, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewLedgerWithClient(client, ttl), nil
}

// NewLedgerWithClient создает журнал поверх готового клиента
func NewLedgerWithClient(client *redis.Client, ttl time.Duration) *Ledger {
	return &Ledger{
		client: client,
		ttl:    ttl,
	}
}

func (l *Ledger) key(userID, opID string) string {
	return ledgerPrefix + userID + ":" + opID
}

// Seen проверяет, применялась ли операция
func (l *Ledger) Seen(ctx context.Context, userID, opID string) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(userID, opID)).Result()
	if err != nil {
		return false, fmt.Errorf("lookup operation: %w", err)
	}
	return n > 0, nil
}

// Mark отмечает операцию примененной
func (l *Ledger) Mark(ctx context.Context, userID, opID string) error {
	if err := l.client.Set(ctx, l.key(userID, opID), time.Now().UTC().Format(time.RFC3339), l.ttl).Err(); err != nil {
		return fmt.Errorf("mark operation: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (l *Ledger) Close() error {
	return l.client.Close()
}
