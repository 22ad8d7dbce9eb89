package cache

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"wellnest/cmd/client/cmd/types"
)

// CacheCmd - родительская команда для работы с кэшем запросов
var CacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Кэш запросов",
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Показать записи кэша",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd.Context())
		if err != nil {
			return err
		}

		entries := app.CacheSnapshot()
		if len(entries) == 0 {
			fmt.Println("Кэш пуст")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Ключ\tРазмер\tОбновлено\tСброшен\tОшибка\t\n")
		fmt.Fprintf(w, "---\t---\t---\t---\t---\t\n")
		for _, e := range entries {
			updated := "-"
			if !e.UpdatedAt.IsZero() {
				updated = e.UpdatedAt.Local().Format(time.DateTime)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%v\t%s\t\n",
				e.Key.String(),
				len(e.Data),
				updated,
				e.Invalidated,
				e.Error,
			)
		}
		return w.Flush()
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Очистить кэш",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd.Context())
		if err != nil {
			return err
		}

		if err := app.ClearCache(cmd.Context()); err != nil {
			return fmt.Errorf("ошибка очистки кэша: %w", err)
		}

		fmt.Println("✅ Кэш очищен")
		return nil
	},
}

func init() {
	CacheCmd.AddCommand(showCmd, clearCmd)
}
