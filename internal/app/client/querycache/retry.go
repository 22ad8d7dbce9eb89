package querycache

import (
	"context"
	"time"
)

// retry повторяет fn не больше retries раз. Без сети повторы не выполняются.
func retry(
	ctx context.Context,
	retries int,
	delay func(int) time.Duration,
	online func() bool,
	fn FetchFunc,
) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		data, err := fn(ctx)
		if err == nil {
			return data, nil
		}
		if attempt >= retries || !online() || ctx.Err() != nil {
			return nil, err
		}

		timer := time.NewTimer(delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, err
		case <-timer.C:
		}
	}
}
