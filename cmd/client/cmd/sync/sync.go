package sync

import (
	"fmt"

	"github.com/spf13/cobra"

	"wellnest/cmd/client/cmd/types"
)

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Управление синхронизацией",
	Long: `Синхронизация очереди изменений с сервером.

Команда "sync run" следит за доступностью сервера и после каждого
восстановления связи отправляет очередь и обновляет кэш запросов.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Следить за сетью и синхронизировать очередь",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd.Context())
		if err != nil {
			return err
		}

		status := "офлайн"
		if app.Online() {
			status = "онлайн"
		}
		fmt.Printf("=== Синхронизация запущена (%s), Ctrl+C для выхода ===\n", status)
		if n := len(app.Outbox(cmd.Context())); n > 0 {
			fmt.Printf("В очереди операций: %d\n", n)
		}

		return app.Run(cmd.Context())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Показать состояние сети и очереди",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("🌐 Сервер: ")
		if app.Online() {
			fmt.Println("✅ доступен")
		} else {
			fmt.Println("❌ недоступен")
		}

		fmt.Printf("📦 Операций в очереди: %d\n", len(app.Outbox(cmd.Context())))
		fmt.Printf("🗂  Записей в кэше: %d\n", len(app.CacheSnapshot()))

		fmt.Printf("🔐 Токен: ")
		if _, err := app.GetToken(); err != nil {
			fmt.Println("❌ не сохранен")
		} else {
			fmt.Println("✅ сохранен")
		}
		return nil
	},
}

func init() {
	SyncCmd.AddCommand(runCmd, statusCmd)
}
