package sync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"wellnest/internal/domain/outbox"
	"wellnest/internal/domain/sync"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ProcessBatch(ctx context.Context, req outbox.SyncRequest) (*outbox.SyncResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.SyncResult), args.Error(1)
}

func (m *MockService) ListRows(ctx context.Context, table string) (*sync.ListRowsResponse, error) {
	args := m.Called(ctx, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sync.ListRowsResponse), args.Error(1)
}

func setup(t *testing.T, service *MockService) humatest.TestAPI {
	_, api := humatest.New(t)
	NewHandler(service, slog.Default(), huma.Middlewares{}).SetupRoutes(api)
	return api
}

func TestHandler_push(t *testing.T) {
	service := &MockService{}
	api := setup(t, service)

	op := outbox.Operation{
		ID:        "op-1",
		Table:     outbox.TableTasks,
		Operation: outbox.KindInsert,
		Data:      map[string]any{"title": "Buy milk"},
		Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	service.On("ProcessBatch", mock.Anything, mock.MatchedBy(func(req outbox.SyncRequest) bool {
		return len(req.Operations) == 1 && req.Operations[0].ID == "op-1"
	})).Return(&outbox.SyncResult{Synced: 1, Remaining: []outbox.Operation{}}, nil)

	resp := api.Post("/api/v1/sync", outbox.SyncRequest{Operations: []outbox.Operation{op}})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body outbox.SyncResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.Synced)
	assert.Equal(t, 0, body.Data.Failed)
	assert.NotNil(t, body.Data.Remaining)
	assert.Empty(t, body.Data.Remaining)
}

func TestHandler_push_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "unauthenticated", err: sync.ErrUnauthenticated, status: http.StatusUnauthorized},
		{name: "internal", err: errors.New("pool closed"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &MockService{}
			service.On("ProcessBatch", mock.Anything, mock.Anything).Return(nil, tt.err)
			api := setup(t, service)

			resp := api.Post("/api/v1/sync", outbox.SyncRequest{Operations: []outbox.Operation{}})
			assert.Equal(t, tt.status, resp.Code)
		})
	}
}

func TestHandler_listRows(t *testing.T) {
	service := &MockService{}
	api := setup(t, service)

	service.On("ListRows", mock.Anything, "tasks").Return(&sync.ListRowsResponse{
		Data: []sync.Row{{ID: "t1", Table: "tasks", Data: map[string]any{"title": "Buy milk"}}},
	}, nil)
	service.On("ListRows", mock.Anything, "passwords").Return(nil, sync.ErrUnknownTable)

	resp := api.Get("/api/v1/tables/tasks/rows")
	require.Equal(t, http.StatusOK, resp.Code)

	var body sync.ListRowsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Buy milk", body.Data[0].Data["title"])

	resp = api.Get("/api/v1/tables/passwords/rows")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
