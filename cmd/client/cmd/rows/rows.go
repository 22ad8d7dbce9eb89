package rows

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"wellnest/cmd/client/cmd/types"
	domain "wellnest/internal/domain/outbox"
	"wellnest/internal/domain/sync"
)

var (
	table      string
	listFormat string
)

// RowsCmd - родительская команда для чтения данных
var RowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "Чтение данных ресурсов",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Список строк ресурса",
	Long: `Показывает строки ресурса текущего пользователя.

Данные читаются через кэш: без связи с сервером показывается
последняя сохраненная версия.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd.Context())
		if err != nil {
			return err
		}

		rows, err := app.ListRows(cmd.Context(), table)
		if err != nil {
			return fmt.Errorf("ошибка получения данных: %w", err)
		}

		switch listFormat {
		case "json":
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(rows)
		default:
			return printRows(rows)
		}
	},
}

func printRows(rows []sync.Row) error {
	if len(rows) == 0 {
		fmt.Println("Строки не найдены")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tДанные\tОбновлено\t\n")
	fmt.Fprintf(w, "---\t---\t---\t\n")

	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t\n",
			row.ID,
			truncate(summary(row.Data), 60),
			row.UpdatedAt.Local().Format("2006-01-02 15:04"),
		)
	}

	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nВсего строк: %d\n", len(rows))
	return nil
}

func summary(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		if k == "id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
	}
	return strings.Join(parts, " ")
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func init() {
	listCmd.Flags().StringVarP(&table, "table", "t", "", "ресурс ("+strings.Join(domain.Tables, ", ")+")")
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "формат вывода (table, json)")
	_ = listCmd.MarkFlagRequired("table")

	RowsCmd.AddCommand(listCmd)
}
