package outbox

import (
	"fmt"
	"strconv"
	"time"
)

// Kind тип операции записи
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindUpsert Kind = "upsert"
	KindDelete Kind = "delete"
)

// Ресурсы приложения, в которые пишет клиент
const (
	TableDiaryEntries       = "diary_entries"
	TableEmotions           = "emotions"
	TableJournalEntries     = "journal_entries"
	TableHabits             = "habits"
	TableManifestationGoals = "manifestation_goals"
	TableNotes              = "notes"
	TableTasks              = "tasks"
)

// Tables список известных ресурсов
var Tables = []string{
	TableDiaryEntries,
	TableEmotions,
	TableJournalEntries,
	TableHabits,
	TableManifestationGoals,
	TableNotes,
	TableTasks,
}

// IsKnownTable проверяет, что ресурс известен приложению
func IsKnownTable(name string) bool {
	for _, t := range Tables {
		if t == name {
			return true
		}
	}
	return false
}

// Operation - отложенная операция записи, ожидающая применения на сервере
type Operation struct {
	ID        string         `json:"id"`
	Table     string         `json:"table"`
	Operation Kind           `json:"operation"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// RowID возвращает идентификатор строки из полезной нагрузки
func (o Operation) RowID() (string, bool) {
	if o.Data == nil {
		return "", false
	}
	raw, ok := o.Data["id"]
	if !ok || raw == nil {
		return "", false
	}

	switch v := raw.(type) {
	case string:
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return fmt.Sprint(v), true
	}
}

// EnqueueRequest запрос на постановку операции в очередь
type EnqueueRequest struct {
	Table     string         `json:"table" validate:"required,known_table"`
	Operation Kind           `json:"operation" validate:"required,oneof=insert update upsert delete"`
	Data      map[string]any `json:"data" validate:"required"`
}

// SyncRequest тело запроса к эндпоинту синхронизации
type SyncRequest struct {
	Operations []Operation `json:"operations"`
}

// SyncResult итог применения пакета на сервере.
// Remaining == nil означает, что сервер не вернул поле remaining.
type SyncResult struct {
	Synced    int         `json:"synced"`
	Failed    int         `json:"failed"`
	Remaining []Operation `json:"remaining"`
}

// SyncResponse ответ эндпоинта синхронизации
type SyncResponse struct {
	Data SyncResult `json:"data"`
}
