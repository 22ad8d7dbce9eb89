package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) pushOp() huma.Operation {
	return huma.Operation{
		OperationID:   "sync-push",
		Method:        http.MethodPost,
		Path:          "/api/v1/sync",
		Summary:       "Применить пакет отложенных операций",
		Description:   "Применяет операции по порядку и возвращает число успешных, неудачных и остаток для повтора",
		Tags:          []string{"sync"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusOK,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) listRowsOp() huma.Operation {
	return huma.Operation{
		OperationID: "rows-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/tables/{table}/rows",
		Summary:     "Получить строки ресурса",
		Description: "Возвращает текущее состояние строк ресурса пользователя",
		Tags:        []string{"rows"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
