package outbox

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"wellnest/cmd/client/cmd/types"
	domain "wellnest/internal/domain/outbox"
)

var listFormat string

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Показать очередь",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd.Context())
		if err != nil {
			return err
		}

		ops := app.Outbox(cmd.Context())

		switch listFormat {
		case "json":
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(ops)
		default:
			return printTable(ops)
		}
	},
}

func printTable(ops []domain.Operation) error {
	if len(ops) == 0 {
		fmt.Println("Очередь пуста")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#\tID\tРесурс\tОперация\tСтрока\tВремя\t\n")
	fmt.Fprintf(w, "---\t---\t---\t---\t---\t---\t\n")

	for i, op := range ops {
		row, ok := op.RowID()
		if !ok {
			row = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
			i+1,
			op.ID,
			op.Table,
			op.Operation,
			row,
			op.Timestamp.Local().Format(time.DateTime),
		)
	}

	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nВсего операций: %d\n", len(ops))
	return nil
}

func init() {
	ListCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "формат вывода (table, json)")
}
