package outbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     EnqueueRequest
		wantErr error
	}{
		{
			name: "insert without id",
			req:  EnqueueRequest{Table: TableTasks, Operation: KindInsert, Data: map[string]any{"title": "Buy milk"}},
		},
		{
			name: "update with id",
			req:  EnqueueRequest{Table: TableHabits, Operation: KindUpdate, Data: map[string]any{"id": "h1", "done": true}},
		},
		{
			name:    "unknown table",
			req:     EnqueueRequest{Table: "profiles", Operation: KindInsert, Data: map[string]any{}},
			wantErr: ErrInvalidOperation,
		},
		{
			name:    "unknown operation",
			req:     EnqueueRequest{Table: TableNotes, Operation: "merge", Data: map[string]any{}},
			wantErr: ErrInvalidOperation,
		},
		{
			name:    "nil data",
			req:     EnqueueRequest{Table: TableNotes, Operation: KindInsert},
			wantErr: ErrInvalidOperation,
		},
		{
			name:    "delete without id",
			req:     EnqueueRequest{Table: TableNotes, Operation: KindDelete, Data: map[string]any{"title": "x"}},
			wantErr: ErrMissingRowID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateOperation_EmptyID(t *testing.T) {
	err := ValidateOperation(Operation{Table: TableTasks, Operation: KindInsert, Data: map[string]any{}})
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestOperation_RowID(t *testing.T) {
	id, ok := Operation{Data: map[string]any{"id": "abc"}}.RowID()
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	id, ok = Operation{Data: map[string]any{"id": float64(42)}}.RowID()
	assert.True(t, ok)
	assert.Equal(t, "42", id)

	// дробные идентификаторы не склеиваются с целыми
	frac, ok := Operation{Data: map[string]any{"id": 1.5}}.RowID()
	assert.True(t, ok)
	assert.Equal(t, "1.5", frac)

	whole, ok := Operation{Data: map[string]any{"id": float64(2)}}.RowID()
	assert.True(t, ok)
	assert.Equal(t, "2", whole)
	assert.NotEqual(t, frac, whole)

	big, _ := Operation{Data: map[string]any{"id": float64(1e15)}}.RowID()
	assert.Equal(t, "1000000000000000", big)

	_, ok = Operation{Data: map[string]any{"id": ""}}.RowID()
	assert.False(t, ok)

	_, ok = Operation{}.RowID()
	assert.False(t, ok)
}
