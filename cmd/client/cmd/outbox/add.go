package outbox

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wellnest/cmd/client/cmd/types"
	domain "wellnest/internal/domain/outbox"
)

var (
	table     string
	operation string
	data      string
)

var AddCmd = &cobra.Command{
	Use:   "add",
	Short: "Добавить операцию в очередь",
	Long: `Добавляет операцию записи в конец очереди.

Пример:
  wellnest outbox add --table tasks --op insert --data '{"title":"Buy milk"}'

Для update, upsert и delete поле "id" в данных обязательно.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd.Context())
		if err != nil {
			return err
		}

		var payload map[string]any
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return fmt.Errorf("данные должны быть JSON-объектом: %w", err)
		}

		op, err := app.Enqueue(cmd.Context(), domain.EnqueueRequest{
			Table:     table,
			Operation: domain.Kind(strings.ToLower(operation)),
			Data:      payload,
		})
		if err != nil {
			return fmt.Errorf("ошибка добавления операции: %w", err)
		}

		fmt.Printf("✓ Операция %s добавлена в очередь\n", op.ID)
		if !app.Online() {
			fmt.Println("Сервер недоступен, изменение будет отправлено после восстановления связи")
		}
		return nil
	},
}

func init() {
	AddCmd.Flags().StringVarP(&table, "table", "t", "", "ресурс ("+strings.Join(domain.Tables, ", ")+")")
	AddCmd.Flags().StringVarP(&operation, "op", "o", string(domain.KindInsert), "операция (insert, update, upsert, delete)")
	AddCmd.Flags().StringVarP(&data, "data", "d", "{}", "данные операции в формате JSON")
	_ = AddCmd.MarkFlagRequired("table")
}
