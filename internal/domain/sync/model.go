package sync

import (
	"time"
)

// Row строка ресурса пользователя, собранная из примененных операций
type Row struct {
	ID        string         `json:"id"`
	Table     string         `json:"table"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ServiceConfig конфигурация сервиса синхронизации
type ServiceConfig struct {
	// MaxBatchSize максимальное число операций в одном пакете
	MaxBatchSize int `json:"max_batch_size"`
}
