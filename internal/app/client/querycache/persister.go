package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"wellnest/internal/app/client/kvstore"
)

const snapshotKey = "snapshot"

// PersistOptions настройки сохранения кэша
type PersistOptions struct {
	// Throttle минимальный интервал между записями
	Throttle time.Duration
	// MaxAge снимок старше этого возраста отбрасывается целиком
	MaxAge time.Duration
	// Buster при несовпадении снимок отбрасывается
	Buster string
}

type persistedCache struct {
	Buster  string          `json:"buster"`
	SavedAt time.Time       `json:"savedAt"`
	Entries []EntrySnapshot `json:"entries"`
}

// Persister сохраняет снимок кэша в хранилище не чаще одного раза за Throttle.
// Последнее изменение внутри интервала всегда записывается.
type Persister struct {
	cache *Cache
	store kvstore.Store
	opts  PersistOptions
	log   *slog.Logger
	now   func() time.Time

	mu        sync.Mutex
	timer     *time.Timer
	lastWrite time.Time
	disabled  bool
	writes    int
}

func NewPersister(cache *Cache, store kvstore.Store, opts PersistOptions, log *slog.Logger) *Persister {
	return &Persister{
		cache: cache,
		store: store,
		opts:  opts,
		log:   log.With(slog.String("component", "persister")),
		now:   time.Now,
	}
}

// Attach подписывает persister на изменения кэша
func (p *Persister) Attach() {
	p.cache.OnChange(p.Schedule)
}

// Restore загружает сохраненный снимок в кэш
func (p *Persister) Restore(ctx context.Context) (int, error) {
	raw, err := p.store.Get(ctx, kvstore.PartitionQueryCache, snapshotKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache snapshot: %w", err)
	}

	var snap persistedCache
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		p.discard(ctx, "undecodable")
		return 0, nil
	}
	if snap.Buster != p.opts.Buster {
		p.discard(ctx, "buster mismatch")
		return 0, nil
	}
	if p.opts.MaxAge > 0 && p.now().Sub(snap.SavedAt) > p.opts.MaxAge {
		p.discard(ctx, "expired")
		return 0, nil
	}

	restored := p.cache.Hydrate(snap.Entries)
	p.log.Debug("cache restored", slog.Int("entries", restored))
	return restored, nil
}

func (p *Persister) discard(ctx context.Context, reason string) {
	p.log.Info("cache snapshot discarded", slog.String("reason", reason))
	if err := p.store.Delete(ctx, kvstore.PartitionQueryCache, snapshotKey); err != nil {
		p.log.Warn("failed to delete cache snapshot", slog.Any("error", err))
	}
}

// Schedule планирует запись снимка с учетом ограничения частоты
func (p *Persister) Schedule() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disabled || p.timer != nil {
		return
	}

	delay := p.opts.Throttle - p.now().Sub(p.lastWrite)
	if delay < 0 {
		delay = 0
	}
	p.timer = time.AfterFunc(delay, func() {
		p.mu.Lock()
		p.timer = nil
		p.mu.Unlock()
		p.persist(context.Background())
	})
}

// Flush немедленно записывает снимок, отменяя отложенную запись
func (p *Persister) Flush(ctx context.Context) {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()

	p.persist(ctx)
}

// Enabled false после первой неудачной записи
func (p *Persister) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.disabled
}

func (p *Persister) persist(ctx context.Context) {
	p.mu.Lock()
	if p.disabled {
		p.mu.Unlock()
		return
	}
	p.lastWrite = p.now()
	p.mu.Unlock()

	snap := persistedCache{
		Buster:  p.opts.Buster,
		SavedAt: p.now(),
		Entries: p.cache.Snapshot(),
	}

	raw, err := json.Marshal(snap)
	if err == nil {
		err = p.store.Set(ctx, kvstore.PartitionQueryCache, snapshotKey, string(raw))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.disabled = true
		p.log.Warn("cache persistence disabled for this session", slog.Any("error", err))
		return
	}
	p.writes++
}

// Writes количество выполненных записей
func (p *Persister) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}

// Clear удаляет сохраненный снимок
func (p *Persister) Clear(ctx context.Context) error {
	return p.store.Delete(ctx, kvstore.PartitionQueryCache, snapshotKey)
}
