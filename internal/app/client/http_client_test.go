package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"wellnest/internal/app/client/config"
	"wellnest/internal/domain/outbox"
)

func newTestHTTPClient(t *testing.T, handler http.HandlerFunc) *httpClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		ServerAddress: strings.TrimPrefix(srv.URL, "http://"),
		HTTPTimeout:   time.Second,
	}
	h, err := NewHTTPClient(cfg, slog.Default())
	require.NoError(t, err)
	return h
}

func TestHTTPClient_PushOperations(t *testing.T) {
	var got outbox.SyncRequest
	h := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sync", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"synced":1,"failed":0,"remaining":[]}}`))
	})
	h.SetToken("token-1")

	ops := []outbox.Operation{{ID: "op-1", Table: outbox.TableNotes, Operation: outbox.KindInsert, Data: map[string]any{"title": "a"}}}
	result, err := h.PushOperations(context.Background(), ops)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Synced)
	assert.NotNil(t, result.Remaining)
	assert.Empty(t, result.Remaining)
	require.Len(t, got.Operations, 1)
	assert.Equal(t, "op-1", got.Operations[0].ID)
}

func TestHTTPClient_PushOperations_MissingRemaining(t *testing.T) {
	h := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"synced":2,"failed":0}}`))
	})

	result, err := h.PushOperations(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, result.Remaining)
}

func TestHTTPClient_PushOperations_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"detail":"internal error"}`},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"Unauthorized"}`, wantErr: ErrUnauthorized},
		{name: "garbage body", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			result, err := h.PushOperations(context.Background(), nil)
			require.Error(t, err)
			assert.Nil(t, result)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestHTTPClient_ListRows(t *testing.T) {
	h := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/tables/tasks/rows", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"id":"t1","table":"tasks","data":{"title":"x"}}]}`))
	})

	rows, err := h.ListRows(context.Background(), outbox.TableTasks)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "t1", rows[0].ID)
	assert.Equal(t, "x", rows[0].Data["title"])
}

func TestHTTPClient_HealthCheck(t *testing.T) {
	healthy := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK"}`))
	})
	assert.NoError(t, healthy.HealthCheck(context.Background()))

	down := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Error(t, down.HealthCheck(context.Background()))
}
