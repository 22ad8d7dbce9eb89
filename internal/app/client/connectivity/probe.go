package connectivity

import (
	"context"
	"time"

	"golang.org/x/exp/slog"
)

// HealthChecker проверяет доступность сервера синхронизации
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Probe источник событий сети для консольного клиента: периодически
// опрашивает сервер и передает результат в монитор.
type Probe struct {
	monitor  *Monitor
	checker  HealthChecker
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger
}

func NewProbe(monitor *Monitor, checker HealthChecker, interval time.Duration, log *slog.Logger) *Probe {
	timeout := interval
	if timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &Probe{
		monitor:  monitor,
		checker:  checker,
		interval: interval,
		timeout:  timeout,
		log:      log.With(slog.String("component", "connectivity")),
	}
}

// Run опрашивает сервер до отмены контекста
func (p *Probe) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}

// Check выполняет одну проверку и возвращает текущее состояние
func (p *Probe) Check(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.checker.HealthCheck(checkCtx)
	if ctx.Err() != nil {
		return p.monitor.Online()
	}

	online := err == nil
	if online != p.monitor.Online() {
		if online {
			p.log.Info("server is reachable")
		} else {
			p.log.Warn("server is unreachable", slog.Any("error", err))
		}
	}
	p.monitor.Set(online)
	return online
}
