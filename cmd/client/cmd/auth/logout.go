package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"wellnest/cmd/client/cmd/types"
)

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Удалить сохраненный токен",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd.Context())
		if err != nil {
			return err
		}

		if err := app.ClearToken(); err != nil {
			return err
		}

		fmt.Println("✅ Токен удален")
		return nil
	},
}
