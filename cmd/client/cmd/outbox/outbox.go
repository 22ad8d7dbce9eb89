package outbox

import (
	"github.com/spf13/cobra"
)

// OutboxCmd - родительская команда для работы с очередью отложенных операций
var OutboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Очередь отложенных изменений",
	Long: `Просмотр и отправка изменений, сделанных без связи с сервером.

Операции отправляются в порядке добавления. Неотправленные операции
остаются в очереди до следующей попытки.`,
}

func init() {
	OutboxCmd.AddCommand(AddCmd, ListCmd, FlushCmd)
}
