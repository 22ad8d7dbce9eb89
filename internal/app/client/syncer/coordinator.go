// Package syncer связывает переходы сети с отправкой очереди и сбросом кэша.
package syncer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/slog"

	"wellnest/internal/app/client/outbox"
	domain "wellnest/internal/domain/outbox"
)

var ErrAlreadyRunning = errors.New("sync coordinator is already running")

type State int

const (
	StateInitial State = iota
	StateOffline
	StateOnlineIdle
	StateFlushing
)

func (s State) String() string {
	switch s {
	case StateOffline:
		return "offline"
	case StateOnlineIdle:
		return "online"
	case StateFlushing:
		return "flushing"
	default:
		return "initial"
	}
}

// Signal источник состояния сети
type Signal interface {
	Online() bool
	Subscribe() (<-chan bool, func())
}

// Outbox очередь отложенных операций
type Outbox interface {
	Get(ctx context.Context) []domain.Operation
	Flush(ctx context.Context) outbox.FlushResult
}

// Invalidator сбрасывает закэшированные запросы
type Invalidator interface {
	InvalidateAll(ctx context.Context)
}

type Coordinator struct {
	signal   Signal
	outbox   Outbox
	cache    Invalidator
	notifier Notifier
	log      *slog.Logger

	running atomic.Bool

	mu         sync.Mutex
	state      State
	wasOffline bool
}

func NewCoordinator(signal Signal, ob Outbox, cache Invalidator, notifier Notifier, log *slog.Logger) *Coordinator {
	return &Coordinator{
		signal:   signal,
		outbox:   ob,
		cache:    cache,
		notifier: notifier,
		log:      log.With(slog.String("component", "syncer")),
		state:    StateInitial,
	}
}

// State текущее состояние автомата
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// NoteOffline запоминает, что клиент был офлайн до запуска Run.
// Если сеть вернется раньше подписки, Run все равно отправит очередь.
func (c *Coordinator) NoteOffline() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wasOffline = true
	if c.state == StateInitial {
		c.state = StateOffline
	}
}

// Run реагирует на переходы сети до отмены контекста.
// Одновременно может работать только один Run.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	transitions, cancel := c.signal.Subscribe()
	defer cancel()

	c.handle(ctx, c.signal.Online())

	for {
		select {
		case <-ctx.Done():
			return nil
		case online := <-transitions:
			c.handle(ctx, online)
		}
	}
}

func (c *Coordinator) handle(ctx context.Context, online bool) {
	c.mu.Lock()
	if !online {
		if c.state != StateOffline {
			c.log.Info("went offline")
		}
		c.state = StateOffline
		c.wasOffline = true
		c.mu.Unlock()
		return
	}

	if !c.wasOffline {
		c.state = StateOnlineIdle
		c.mu.Unlock()
		return
	}

	c.wasOffline = false
	c.state = StateFlushing
	c.mu.Unlock()

	c.log.Info("back online, reconciling")
	c.Reconcile(ctx)

	c.mu.Lock()
	if c.state == StateFlushing {
		c.state = StateOnlineIdle
	}
	c.mu.Unlock()
}

// Reconcile читает очередь, отправляет ее (если она не пуста), сообщает
// итог и сбрасывает все закэшированные запросы.
func (c *Coordinator) Reconcile(ctx context.Context) outbox.FlushResult {
	var res outbox.FlushResult

	if pending := c.outbox.Get(ctx); len(pending) > 0 {
		res = c.outbox.Flush(ctx)
		c.report(res)
	}

	c.cache.InvalidateAll(ctx)
	return res
}

func (c *Coordinator) report(res outbox.FlushResult) {
	if res.Synced > 0 {
		c.notifier.Success(SyncedMessage(res.Synced))
	}
	if res.Failed > 0 {
		c.notifier.Failure(FailedMessage(res.Failed))
	}
}
