package outbox

import (
	"fmt"

	"github.com/spf13/cobra"

	"wellnest/cmd/client/cmd/types"
)

var FlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Отправить очередь на сервер",
	Long: `Отправляет всю очередь одним пакетом и обновляет кэш запросов.

Операции, которые сервер не смог применить, остаются в очереди.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd.Context())
		if err != nil {
			return err
		}

		pending := len(app.Outbox(cmd.Context()))
		if pending == 0 {
			fmt.Println("Очередь пуста")
			return nil
		}

		if !app.CheckConnection(cmd.Context()) {
			return fmt.Errorf("сервер недоступен, в очереди %d операций", pending)
		}

		res := app.Flush(cmd.Context())
		if left := len(app.Outbox(cmd.Context())); left > 0 {
			fmt.Printf("В очереди осталось операций: %d\n", left)
		}
		if res.Synced == 0 && res.Failed > 0 {
			return fmt.Errorf("не удалось отправить ни одной операции")
		}
		return nil
	},
}
