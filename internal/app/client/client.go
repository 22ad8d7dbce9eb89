package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	gosync "sync"
	"syscall"
	"time"

	"golang.org/x/exp/slog"

	"wellnest/internal/app/client/config"
	"wellnest/internal/app/client/connectivity"
	"wellnest/internal/app/client/kvstore"
	"wellnest/internal/app/client/outbox"
	"wellnest/internal/app/client/querycache"
	"wellnest/internal/app/client/syncer"
	domain "wellnest/internal/domain/outbox"
	"wellnest/internal/domain/sync"
)

const janitorInterval = time.Minute

// App - единственный экземпляр клиентского ядра. Создается один раз при
// старте и передается командам по ссылке.
type App struct {
	config      *config.Config
	log         *slog.Logger
	store       kvstore.Store
	httpClient  *httpClient
	outbox      *outbox.Queue
	monitor     *connectivity.Monitor
	probe       *connectivity.Probe
	coordinator *syncer.Coordinator
	cache       *querycache.Cache
	persister   *querycache.Persister
	notifier    syncer.Notifier

	bootOnce  gosync.Once
	closeOnce gosync.Once
	wg        gosync.WaitGroup
}

// Option настраивает App при создании
type Option func(*App)

// WithNotifier заменяет вывод уведомлений о синхронизации
func WithNotifier(n syncer.Notifier) Option {
	return func(a *App) {
		a.notifier = n
	}
}

// WithStore подменяет локальное хранилище
func WithStore(s kvstore.Store) Option {
	return func(a *App) {
		a.store = s
	}
}

func New(cfg *config.Config, log *slog.Logger, opts ...Option) (*App, error) {
	app := &App{
		config: cfg,
		log:    log,
	}
	for _, opt := range opts {
		opt(app)
	}

	// Инициализируем локальное хранилище (используем SQLite)
	if app.store == nil {
		sqliteStore, err := kvstore.NewSQLiteStore(cfg.DataPath)
		if err != nil {
			log.Warn("Не удалось инициализировать SQLite, используем память", slog.Any("error", err))
			app.store = kvstore.NewMemoryStore()
		} else {
			app.store = sqliteStore
		}
	}
	if app.notifier == nil {
		app.notifier = syncer.NewConsoleNotifier(os.Stdout)
	}

	// Инициализируем HTTP клиент
	httpCl, err := NewHTTPClient(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации HTTP клиента: %w", err)
	}
	app.httpClient = httpCl

	// Загружаем токен если он есть
	if token, err := app.GetToken(); err == nil && token != "" {
		httpCl.SetToken(token)
		log.Debug("Токен загружен из файла")
	}

	// состояние сети неизвестно до первой проверки
	app.monitor = connectivity.NewMonitor(false)
	app.probe = connectivity.NewProbe(app.monitor, httpCl, cfg.ProbeInterval, log)

	app.outbox = outbox.NewQueue(app.store, httpCl, log)

	cacheOpts := querycache.DefaultOptions()
	cacheOpts.GCTime = cfg.Cache.GCTime
	cacheOpts.StaleTime = cfg.Cache.StaleTime
	cacheOpts.QueryRetries = cfg.Cache.QueryRetries
	cacheOpts.MutationRetries = cfg.Cache.MutationRetries
	app.cache = querycache.New(cacheOpts, app.monitor, log)

	app.persister = querycache.NewPersister(app.cache, app.store, querycache.PersistOptions{
		Throttle: cfg.Cache.PersistThrottle,
		MaxAge:   cfg.Cache.MaxAge,
		Buster:   cfg.Cache.Buster,
	}, log)
	app.persister.Attach()

	app.coordinator = syncer.NewCoordinator(app.monitor, app.outbox, app.cache, app.notifier, log)

	return app, nil
}

// Bootstrap восстанавливает кэш и определяет состояние сети. Повторные вызовы ничего не делают.
func (a *App) Bootstrap(ctx context.Context) {
	a.bootOnce.Do(func() {
		n, err := a.persister.Restore(ctx)
		if err != nil {
			a.log.Warn("Не удалось восстановить кэш", slog.Any("error", err))
		} else if n > 0 {
			a.log.Debug("Кэш восстановлен", slog.Int("entries", n))
		}

		if !a.probe.Check(ctx) {
			a.coordinator.NoteOffline()
		}
	})
}

// Run запускает наблюдение за сетью и синхронизацию до сигнала завершения
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Bootstrap(ctx)

	var runErr error
	a.wg.Add(3)
	go func() {
		defer a.wg.Done()
		a.probe.Run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		if err := a.coordinator.Run(ctx); err != nil {
			runErr = err
			stop()
		}
	}()
	go func() {
		defer a.wg.Done()
		a.cache.RunJanitor(ctx, janitorInterval)
	}()

	a.log.Info("Клиент запущен",
		slog.String("server", a.config.ServerAddress),
		slog.String("env", a.config.Env),
	)

	<-ctx.Done()
	a.wg.Wait()
	a.log.Info("Синхронизация остановлена")

	return runErr
}

// Close сохраняет кэш и закрывает хранилище
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.cache.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.persister.Flush(ctx)

		err = a.store.Close()
	})
	return err
}

// Online последнее известное состояние сети
func (a *App) Online() bool {
	return a.monitor.Online()
}

// CheckConnection проверяет соединение с сервером и обновляет состояние сети
func (a *App) CheckConnection(ctx context.Context) bool {
	return a.probe.Check(ctx)
}

// SyncState состояние координатора синхронизации
func (a *App) SyncState() syncer.State {
	return a.coordinator.State()
}

// Enqueue ставит операцию записи в очередь
func (a *App) Enqueue(ctx context.Context, req domain.EnqueueRequest) (*domain.Operation, error) {
	return a.outbox.Enqueue(ctx, req)
}

// Outbox возвращает операции, ожидающие отправки
func (a *App) Outbox(ctx context.Context) []domain.Operation {
	return a.outbox.Get(ctx)
}

// Flush отправляет очередь, сообщает итог и сбрасывает кэш запросов
func (a *App) Flush(ctx context.Context) outbox.FlushResult {
	return a.coordinator.Reconcile(ctx)
}

// ListRows строки ресурса через кэш запросов
func (a *App) ListRows(ctx context.Context, table string) ([]sync.Row, error) {
	if !domain.IsKnownTable(table) {
		return nil, fmt.Errorf("неизвестный ресурс %q, доступны: %s", table, strings.Join(domain.Tables, ", "))
	}

	return querycache.Query(ctx, a.cache, querycache.Key{"rows", table},
		func(ctx context.Context) ([]sync.Row, error) {
			return a.httpClient.ListRows(ctx, table)
		})
}

// CacheSnapshot содержимое кэша запросов
func (a *App) CacheSnapshot() []querycache.EntrySnapshot {
	return a.cache.Snapshot()
}

// ClearCache очищает кэш в памяти и сохраненный снимок
func (a *App) ClearCache(ctx context.Context) error {
	a.cache.Clear()
	return a.persister.Clear(ctx)
}

// GetToken возвращает сохраненный токен
func (a *App) GetToken() (string, error) {
	tokenBytes, err := os.ReadFile(a.config.TokenPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("токен не найден. Сохраните его: wellnest auth token <token>")
		}
		return "", fmt.Errorf("ошибка чтения токена: %w", err)
	}
	return strings.TrimSpace(string(tokenBytes)), nil
}

// SaveToken сохраняет токен аутентификации
func (a *App) SaveToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("пустой токен")
	}
	if err := os.WriteFile(a.config.TokenPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("ошибка сохранения токена: %w", err)
	}

	a.httpClient.SetToken(token)
	return nil
}

// ClearToken удаляет токен
func (a *App) ClearToken() error {
	if err := os.Remove(a.config.TokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка удаления токена: %w", err)
	}

	a.httpClient.SetToken("")
	return nil
}
