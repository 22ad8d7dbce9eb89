// Package querycache кэширует ответы сервера в памяти: отдает сохраненные
// данные сразу и обновляет их в фоне, когда они устарели.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/singleflight"
)

var ErrOffline = errors.New("client is offline")

// Key ключ запроса, например {"rows", "tasks"}
type Key []string

func (k Key) String() string {
	return strings.Join(k, "/")
}

// HasPrefix проверяет, что ключ начинается с prefix
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// FetchFunc загружает данные запроса в JSON
type FetchFunc func(ctx context.Context) ([]byte, error)

// Signal источник состояния сети
type Signal interface {
	Online() bool
}

type entry struct {
	key         Key
	data        json.RawMessage
	updatedAt   time.Time
	lastAccess  time.Time
	invalidated bool
	err         string
	fetch       FetchFunc
}

func (e *entry) hasData() bool {
	return e.data != nil
}

type Cache struct {
	opts   Options
	signal Signal
	log    *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	entries  map[string]*entry
	onChange func()

	group singleflight.Group
	bg    context.Context
	stop  context.CancelFunc
	wg    sync.WaitGroup
}

func New(opts Options, signal Signal, log *slog.Logger) *Cache {
	if opts.RetryDelay == nil {
		opts.RetryDelay = Backoff
	}
	bg, stop := context.WithCancel(context.Background())
	return &Cache{
		opts:    opts,
		signal:  signal,
		log:     log.With(slog.String("component", "querycache")),
		now:     time.Now,
		entries: make(map[string]*entry),
		bg:      bg,
		stop:    stop,
	}
}

// OnChange регистрирует обработчик изменений содержимого кэша
func (c *Cache) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Cache) changed() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Cache) online() bool {
	return c.signal == nil || c.signal.Online()
}

// Fetch возвращает данные запроса. Свежие данные отдаются из кэша,
// устаревшие отдаются из кэша и обновляются в фоне, при промахе запрос
// выполняется синхронно.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch FetchFunc) (json.RawMessage, error) {
	k := key.String()
	now := c.now()

	c.mu.Lock()
	e, ok := c.entries[k]
	if !ok {
		e = &entry{key: append(Key(nil), key...)}
		c.entries[k] = e
	}
	e.fetch = fetch
	e.lastAccess = now
	data := e.data
	hit := e.hasData()
	stale := c.isStale(e, now)
	c.mu.Unlock()

	if hit {
		if stale {
			c.refetchAsync(key)
		}
		return data, nil
	}

	return c.refetch(ctx, key)
}

func (c *Cache) isStale(e *entry, now time.Time) bool {
	return e.invalidated || now.Sub(e.updatedAt) >= c.opts.StaleTime
}

func (c *Cache) refetchAsync(key Key) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.refetch(c.bg, key); err != nil {
			c.log.Debug("background refetch failed",
				slog.String("key", key.String()),
				slog.Any("error", err),
			)
		}
	}()
}

// refetch выполняет запрос один раз на ключ, даже при конкурентных вызовах
func (c *Cache) refetch(ctx context.Context, key Key) (json.RawMessage, error) {
	k := key.String()

	v, err, _ := c.group.Do(k, func() (any, error) {
		c.mu.Lock()
		e, ok := c.entries[k]
		var fetch FetchFunc
		if ok {
			fetch = e.fetch
		}
		c.mu.Unlock()

		if fetch == nil {
			return nil, fmt.Errorf("no fetcher registered for %q", k)
		}
		if c.opts.NetworkMode == OnlineOnly && !c.online() {
			return nil, ErrOffline
		}

		data, err := retry(ctx, c.opts.QueryRetries, c.opts.RetryDelay, c.online, fetch)

		c.mu.Lock()
		if e, ok = c.entries[k]; ok {
			if err != nil {
				e.err = err.Error()
			} else {
				e.data = data
				e.err = ""
				e.updatedAt = c.now()
				e.invalidated = false
			}
		}
		c.mu.Unlock()

		if err != nil {
			return nil, err
		}
		c.changed()
		return json.RawMessage(data), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

// Mutate выполняет запись на сервер с политикой повторов для мутаций
func (c *Cache) Mutate(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := retry(ctx, c.opts.MutationRetries, c.opts.RetryDelay, c.online,
		func(ctx context.Context) ([]byte, error) {
			return nil, fn(ctx)
		})
	return err
}

// Invalidate помечает устаревшими запросы с префиксом prefix и, если
// клиент онлайн, заново загружает те из них, для которых известен загрузчик.
func (c *Cache) Invalidate(ctx context.Context, prefix Key) {
	c.mu.Lock()
	var observed []Key
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		e.invalidated = true
		if e.fetch != nil {
			observed = append(observed, e.key)
		}
	}
	c.mu.Unlock()

	c.changed()

	if !c.online() {
		return
	}
	for _, key := range observed {
		if _, err := c.refetch(ctx, key); err != nil {
			c.log.Warn("refetch after invalidation failed",
				slog.String("key", key.String()),
				slog.Any("error", err),
			)
		}
	}
}

// InvalidateAll сбрасывает все запросы
func (c *Cache) InvalidateAll(ctx context.Context) {
	c.Invalidate(ctx, nil)
}

// CollectGarbage удаляет записи, к которым не обращались дольше GCTime
func (c *Cache) CollectGarbage() int {
	now := c.now()

	c.mu.Lock()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.lastAccess) >= c.opts.GCTime {
			delete(c.entries, k)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.log.Debug("cache entries collected", slog.Int("removed", removed))
		c.changed()
	}
	return removed
}

// RunJanitor периодически удаляет неиспользуемые записи до отмены контекста
func (c *Cache) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CollectGarbage()
		}
	}
}

// Clear удаляет все записи
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
	c.changed()
}

// Len количество записей
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close останавливает фоновые обновления
func (c *Cache) Close() {
	c.stop()
	c.wg.Wait()
}

// Query типизированная обертка над Fetch
func Query[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	var out T

	raw, err := c.Fetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return out, nil
}
