// Package kvstore хранит строковые значения по паре (раздел, ключ)
// и переживает перезапуск приложения.
package kvstore

import (
	"context"
	"errors"
)

const (
	// PartitionOutbox раздел очереди исходящих операций
	PartitionOutbox = "outbox"
	// PartitionQueryCache раздел снимка кэша запросов
	PartitionQueryCache = "query-cache"
)

var (
	ErrNotFound = errors.New("key not found")
	ErrClosed   = errors.New("store is closed")
)

// Store долговременное хранилище ключ-значение.
// Set атомарно перезаписывает значение и возвращается только после записи на диск.
// Delete отсутствующего ключа не считается ошибкой.
type Store interface {
	Get(ctx context.Context, partition, key string) (string, error)
	Set(ctx context.Context, partition, key, value string) error
	Delete(ctx context.Context, partition, key string) error
	Close() error
}
