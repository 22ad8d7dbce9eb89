// POST /api/v1/sync                   # Применить пакет операций (auth)
// GET  /api/v1/tables/{table}/rows    # Строки ресурса (auth)
// GET  /api/v1/health                 # Проверка доступности (публичный)

package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/exp/slog"

	healthAPI "wellnest/internal/app/server/api/http/health"
	"wellnest/internal/app/server/api/http/middleware"
	"wellnest/internal/app/server/api/http/middleware/auth"
	"wellnest/internal/app/server/api/http/middleware/logger"
	syncAPI "wellnest/internal/app/server/api/http/sync"
	"wellnest/internal/domain/session"
	"wellnest/internal/domain/sync"
)

type Handlers struct {
	Health *healthAPI.Handler
	Sync   *syncAPI.Handler
}

// Deps зависимости HTTP API
type Deps struct {
	DB       healthAPI.Pinger
	Repo     sync.Repository
	Ledger   sync.Ledger
	Sessions session.Servicer
}

// New создает *chi.Mux с ВСЕМИ операциями через huma.Register
func New(deps Deps, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)

	config := huma.DefaultConfig("Wellnest Sync API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
	}

	API := humachi.New(mux, config)

	h := handlers(deps, log)
	h.Health.SetupRoutes(API)
	h.Sync.SetupRoutes(API)

	return mux
}

func handlers(deps Deps, log *slog.Logger) *Handlers {
	authMW := auth.New(deps.Sessions, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(deps.DB, log, middlewares.GetAllAndClear())

	syncService := sync.NewService(deps.Repo, deps.Ledger, log, nil)
	middlewares.Add(loggerMW.Middleware(), authMW.Middleware())
	syncHandler := syncAPI.NewHandler(syncService, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		Sync:   syncHandler,
	}
}
