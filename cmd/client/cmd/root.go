// cmd/client/cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/exp/slog"

	"wellnest/cmd/client/cmd/auth"
	"wellnest/cmd/client/cmd/cache"
	"wellnest/cmd/client/cmd/outbox"
	"wellnest/cmd/client/cmd/rows"
	"wellnest/cmd/client/cmd/sync"
	"wellnest/cmd/client/cmd/types"
	"wellnest/internal/app/client"
	"wellnest/internal/app/client/config"
	"wellnest/internal/utils/logger"
)

var (
	cfgFile   string
	cfg       *config.Config
	log       *slog.Logger
	app       *client.App
	debug     bool
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "wellnest",
	Short: "Wellnest - офлайн-клиент дневника и привычек",
	Long: `Wellnest хранит изменения локально, пока сервер недоступен,
и отправляет их одним пакетом, как только соединение восстановится.

Чтение идет через кэш запросов, который переживает перезапуск клиента.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	// Загружаем конфигурацию
	var err error
	cfg, err = loadConfig()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Переопределяем настройки из флагов командной строки
	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}
	if debug {
		cfg.LogLevel = "debug"
	}

	// Настраиваем логгер, stdout остается для вывода команд
	log = logger.New(cfg.Env,
		logger.WithOutput(os.Stderr),
		logger.WithFile(cfg.LogFile),
		logger.WithLevel(cfg.LogLevel),
	)

	// Создаем приложение
	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app.Bootstrap(ctx)
	cmd.SetContext(types.WithApp(ctx, app))

	return nil
}

func closeApp(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	return app.Close()
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Ищем конфиг в стандартных местах
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}

		viper.AddConfigPath(filepath.Join(home, ".wellnest"))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		// Конфиг не найден, используем значения по умолчанию
	}

	return config.Load()
}

func init() {
	// Глобальные флаги
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный режим")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "адрес сервера Wellnest (host:port)")

	rootCmd.AddCommand(
		auth.AuthCmd,
		outbox.OutboxCmd,
		sync.SyncCmd,
		rows.RowsCmd,
		cache.CacheCmd,
	)
}
