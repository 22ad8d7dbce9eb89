package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"wellnest/cmd/client/cmd/types"
)

var TokenCmd = &cobra.Command{
	Use:   "token <token>",
	Short: "Сохранить токен доступа",
	Long: `Сохраняет токен, выданный командой "wellnest-server token <user-id>".

Токен хранится локально и добавляется ко всем запросам к серверу.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFrom(cmd.Context())
		if err != nil {
			return err
		}

		if err := app.SaveToken(args[0]); err != nil {
			return err
		}

		fmt.Println("✅ Токен сохранен")
		return nil
	},
}
