package querycache

import "time"

// NetworkMode определяет поведение запросов без сети
type NetworkMode int

const (
	// OfflineFirst первая попытка выполняется всегда, повторы только онлайн
	OfflineFirst NetworkMode = iota
	// OnlineOnly без сети запросы не выполняются
	OnlineOnly
)

type Options struct {
	// GCTime через сколько неиспользуемая запись удаляется из кэша
	GCTime time.Duration
	// StaleTime сколько данные считаются свежими
	StaleTime       time.Duration
	NetworkMode     NetworkMode
	QueryRetries    int
	MutationRetries int
	// RetryDelay пауза перед повтором с номером attempt (с нуля)
	RetryDelay func(attempt int) time.Duration
}

func DefaultOptions() Options {
	return Options{
		GCTime:          24 * time.Hour,
		StaleTime:       5 * time.Minute,
		NetworkMode:     OfflineFirst,
		QueryRetries:    2,
		MutationRetries: 1,
		RetryDelay:      Backoff,
	}
}

const (
	baseRetryDelay = time.Second
	maxRetryDelay  = 30 * time.Second
)

// Backoff экспоненциальная задержка min(1s*2^attempt, 30s)
func Backoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxRetryDelay
	}
	d := baseRetryDelay << attempt
	if d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}
