package sync

import (
	"wellnest/internal/domain/outbox"
	"wellnest/internal/domain/sync"
)

// Request/Response для приема пакета операций
type pushInput struct {
	Body outbox.SyncRequest
}

type pushOutput struct {
	Body outbox.SyncResponse
}

// Request/Response для чтения строк ресурса
type listRowsInput struct {
	Table string `path:"table" doc:"Resource name, e.g. tasks"`
}

type listRowsOutput struct {
	Body sync.ListRowsResponse
}
