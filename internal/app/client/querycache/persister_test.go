package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellnest/internal/app/client/kvstore"
)

type failingStore struct {
	*kvstore.MemoryStore
}

func (failingStore) Set(context.Context, string, string, string) error {
	return errors.New("quota exceeded")
}

func seed(t *testing.T, c *Cache) {
	t.Helper()
	_, err := c.Fetch(context.Background(), Key{"rows", "tasks"}, newCounter(`[{"title":"Buy milk"}]`).fetch)
	require.NoError(t, err)
}

func TestPersister_FlushAndRestore(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()

	c, clk := newTestCache(newSignal(true))
	defer c.Close()
	seed(t, c)

	p := NewPersister(c, store, PersistOptions{MaxAge: time.Hour, Buster: "v1"}, testLogger())
	p.now = clk.Now
	p.Flush(ctx)
	assert.Equal(t, 1, p.Writes())

	restoredCache, _ := newTestCache(newSignal(false))
	defer restoredCache.Close()
	restorer := NewPersister(restoredCache, store, PersistOptions{MaxAge: time.Hour, Buster: "v1"}, testLogger())
	restorer.now = clk.Now

	n, err := restorer.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.JSONEq(t, `[{"title":"Buy milk"}]`, string(restoredCache.Snapshot()[0].Data))
}

func TestPersister_RestoreDiscards(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		buster string
		age    time.Duration
	}{
		{name: "buster mismatch", buster: "v2", age: time.Minute},
		{name: "too old", buster: "v1", age: 2 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := kvstore.NewMemoryStore()
			c, clk := newTestCache(newSignal(true))
			defer c.Close()
			seed(t, c)

			writer := NewPersister(c, store, PersistOptions{MaxAge: time.Hour, Buster: "v1"}, testLogger())
			writer.now = clk.Now
			writer.Flush(ctx)

			clk.Advance(tt.age)
			fresh, _ := newTestCache(newSignal(true))
			defer fresh.Close()
			reader := NewPersister(fresh, store, PersistOptions{MaxAge: time.Hour, Buster: tt.buster}, testLogger())
			reader.now = clk.Now

			n, err := reader.Restore(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
			assert.Zero(t, fresh.Len())

			_, err = store.Get(ctx, kvstore.PartitionQueryCache, snapshotKey)
			assert.ErrorIs(t, err, kvstore.ErrNotFound)
		})
	}
}

func TestPersister_RestoreMissing(t *testing.T) {
	c, _ := newTestCache(newSignal(true))
	defer c.Close()
	p := NewPersister(c, kvstore.NewMemoryStore(), PersistOptions{}, testLogger())

	n, err := p.Restore(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPersister_Throttle(t *testing.T) {
	store := kvstore.NewMemoryStore()
	c, _ := newTestCache(newSignal(true))
	defer c.Close()

	p := NewPersister(c, store, PersistOptions{Throttle: 100 * time.Millisecond}, testLogger())
	p.Attach()

	for i := 0; i < 10; i++ {
		c.Fetch(context.Background(), Key{"rows", string(rune('a' + i))}, newCounter(`1`).fetch)
	}

	require.Eventually(t, func() bool { return p.Writes() >= 1 }, time.Second, 5*time.Millisecond)

	// последняя запись внутри интервала не теряется
	require.Eventually(t, func() bool {
		raw, err := store.Get(context.Background(), kvstore.PartitionQueryCache, snapshotKey)
		if err != nil {
			return false
		}
		var snap persistedCache
		return json.Unmarshal([]byte(raw), &snap) == nil && len(snap.Entries) == 10
	}, time.Second, 5*time.Millisecond)

	assert.LessOrEqual(t, p.Writes(), 3)
}

func TestPersister_WriteFailureDisables(t *testing.T) {
	c, _ := newTestCache(newSignal(true))
	defer c.Close()
	seed(t, c)

	p := NewPersister(c, failingStore{kvstore.NewMemoryStore()}, PersistOptions{}, testLogger())
	p.Flush(context.Background())

	assert.False(t, p.Enabled())
	assert.Zero(t, p.Writes())

	p.Schedule()
	p.mu.Lock()
	assert.Nil(t, p.timer)
	p.mu.Unlock()
}
