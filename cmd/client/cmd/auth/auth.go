package auth

import (
	"github.com/spf13/cobra"
)

// AuthCmd - родительская команда для всех операций с токеном доступа
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Управление доступом",
	Long:  `Сохранение и удаление токена доступа к серверу синхронизации.`,
}

func init() {
	AuthCmd.AddCommand(TokenCmd, LogoutCmd)
}
