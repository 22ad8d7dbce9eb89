package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"wellnest/internal/app/server/api"
	"wellnest/internal/app/server/config"
	"wellnest/internal/domain/session"
	"wellnest/internal/domain/sync"
	"wellnest/internal/infrastructure/storage/postgres"
	"wellnest/internal/infrastructure/storage/redis"
	"wellnest/internal/utils/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "wellnest-server",
		Short:        "Сервер синхронизации Wellnest",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	cmd.AddCommand(tokenCmd())
	return cmd
}

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Выпустить токен доступа для пользователя",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoadAuth()
			log := logger.New(cfg.Env)

			sessions := session.NewService(cfg.Auth.Secret, cfg.Auth.TokenTTL, log)
			token, err := sessions.Create(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to init storage", slog.Any("error", err))
		return err
	}
	defer storage.Close()

	var ledger sync.Ledger = sync.NoopLedger{}
	if cfg.Ledger.RedisURL != "" {
		redisLedger, err := redis.NewLedger(ctx, cfg.Ledger.RedisURL, cfg.Ledger.TTL)
		if err != nil {
			// журнал только ускоряет повторы, источник истины - applied_operations
			log.Warn("redis ledger unavailable, continuing without it", slog.Any("error", err))
		} else {
			defer redisLedger.Close()
			ledger = redisLedger
			log.Info("using redis ledger")
		}
	}

	sessions := session.NewService(cfg.Auth.Secret, cfg.Auth.TokenTTL, log)
	router := api.New(api.Deps{
		DB:       storage,
		Repo:     postgres.NewSyncRepository(storage.Pool(), log),
		Ledger:   ledger,
		Sessions: sessions,
	}, log)

	srv := &http.Server{
		Addr:              cfg.Server.RunAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", slog.String("address", cfg.Server.RunAddress), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", slog.Any("error", err))
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}
