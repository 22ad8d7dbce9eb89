package querycache

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type fakeSignal struct {
	online atomic.Bool
}

func newSignal(online bool) *fakeSignal {
	s := &fakeSignal{}
	s.online.Store(online)
	return s
}

func (s *fakeSignal) Online() bool { return s.online.Load() }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCache(signal Signal) (*Cache, *clock) {
	opts := DefaultOptions()
	opts.RetryDelay = func(int) time.Duration { return 0 }

	clk := &clock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	c := New(opts, signal, testLogger())
	c.now = clk.Now
	return c, clk
}

type counter struct {
	calls atomic.Int32
	value atomic.Value
	err   error
}

func (f *counter) fetch(context.Context) ([]byte, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.value.Load().(string)), nil
}

func newCounter(value string) *counter {
	f := &counter{}
	f.value.Store(value)
	return f
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, Backoff(0))
	assert.Equal(t, 2*time.Second, Backoff(1))
	assert.Equal(t, 16*time.Second, Backoff(4))
	assert.Equal(t, 30*time.Second, Backoff(5))
	assert.Equal(t, 30*time.Second, Backoff(40))
}

func TestKey_HasPrefix(t *testing.T) {
	assert.True(t, Key{"rows", "tasks"}.HasPrefix(Key{"rows"}))
	assert.True(t, Key{"rows", "tasks"}.HasPrefix(nil))
	assert.False(t, Key{"rows"}.HasPrefix(Key{"rows", "tasks"}))
	assert.False(t, Key{"rows", "notes"}.HasPrefix(Key{"rows", "tasks"}))
}

func TestCache_FreshHit(t *testing.T) {
	c, clk := newTestCache(newSignal(true))
	defer c.Close()
	f := newCounter(`[1]`)

	data, err := c.Fetch(context.Background(), Key{"rows", "tasks"}, f.fetch)
	require.NoError(t, err)
	assert.JSONEq(t, `[1]`, string(data))

	clk.Advance(time.Minute)
	data, err = c.Fetch(context.Background(), Key{"rows", "tasks"}, f.fetch)
	require.NoError(t, err)
	assert.JSONEq(t, `[1]`, string(data))
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestCache_StaleWhileRevalidate(t *testing.T) {
	c, clk := newTestCache(newSignal(true))
	defer c.Close()
	f := newCounter(`"old"`)
	key := Key{"rows", "notes"}

	_, err := c.Fetch(context.Background(), key, f.fetch)
	require.NoError(t, err)

	f.value.Store(`"new"`)
	clk.Advance(6 * time.Minute)

	data, err := c.Fetch(context.Background(), key, f.fetch)
	require.NoError(t, err)
	assert.JSONEq(t, `"old"`, string(data))

	require.Eventually(t, func() bool {
		snap := c.Snapshot()
		return len(snap) == 1 && string(snap[0].Data) == `"new"`
	}, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestCache_RetriesWhileOnline(t *testing.T) {
	c, _ := newTestCache(newSignal(true))
	defer c.Close()
	f := &counter{err: errors.New("502 bad gateway")}

	_, err := c.Fetch(context.Background(), Key{"rows", "tasks"}, f.fetch)
	assert.Error(t, err)
	assert.EqualValues(t, 3, f.calls.Load())
}

func TestCache_NoRetryWhileOffline(t *testing.T) {
	c, _ := newTestCache(newSignal(false))
	defer c.Close()
	f := &counter{err: errors.New("network unreachable")}

	_, err := c.Fetch(context.Background(), Key{"rows", "tasks"}, f.fetch)
	assert.Error(t, err)
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestCache_OnlineOnlyModeSkipsFetchOffline(t *testing.T) {
	c, _ := newTestCache(newSignal(false))
	defer c.Close()
	c.opts.NetworkMode = OnlineOnly
	f := newCounter(`1`)

	_, err := c.Fetch(context.Background(), Key{"rows", "tasks"}, f.fetch)
	assert.ErrorIs(t, err, ErrOffline)
	assert.Zero(t, f.calls.Load())
}

func TestCache_Mutate(t *testing.T) {
	c, _ := newTestCache(newSignal(true))
	defer c.Close()

	var calls int
	err := c.Mutate(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("timeout")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = c.Mutate(context.Background(), func(context.Context) error {
		calls++
		return errors.New("timeout")
	})
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestCache_DedupesConcurrentFetches(t *testing.T) {
	c, _ := newTestCache(newSignal(true))
	defer c.Close()

	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte(`1`), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Fetch(context.Background(), Key{"rows", "habits"}, fetch)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
}

func TestCache_InvalidateRefetchesObserved(t *testing.T) {
	c, _ := newTestCache(newSignal(true))
	defer c.Close()
	tasks := newCounter(`"tasks v1"`)
	notes := newCounter(`"notes v1"`)

	_, err := c.Fetch(context.Background(), Key{"rows", "tasks"}, tasks.fetch)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), Key{"rows", "notes"}, notes.fetch)
	require.NoError(t, err)

	tasks.value.Store(`"tasks v2"`)
	c.Invalidate(context.Background(), Key{"rows", "tasks"})

	assert.EqualValues(t, 2, tasks.calls.Load())
	assert.EqualValues(t, 1, notes.calls.Load())

	data, err := c.Fetch(context.Background(), Key{"rows", "tasks"}, tasks.fetch)
	require.NoError(t, err)
	assert.JSONEq(t, `"tasks v2"`, string(data))

	c.InvalidateAll(context.Background())
	assert.EqualValues(t, 3, tasks.calls.Load())
	assert.EqualValues(t, 2, notes.calls.Load())
}

func TestCache_InvalidateOfflineOnlyMarksStale(t *testing.T) {
	signal := newSignal(true)
	c, _ := newTestCache(signal)
	defer c.Close()
	f := newCounter(`1`)

	_, err := c.Fetch(context.Background(), Key{"rows", "tasks"}, f.fetch)
	require.NoError(t, err)

	signal.online.Store(false)
	c.InvalidateAll(context.Background())

	assert.EqualValues(t, 1, f.calls.Load())
	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.True(t, snap[0].Invalidated)
}

func TestCache_CollectGarbage(t *testing.T) {
	c, clk := newTestCache(newSignal(true))
	defer c.Close()

	_, err := c.Fetch(context.Background(), Key{"rows", "tasks"}, newCounter(`1`).fetch)
	require.NoError(t, err)
	clk.Advance(12 * time.Hour)
	_, err = c.Fetch(context.Background(), Key{"rows", "notes"}, newCounter(`2`).fetch)
	require.NoError(t, err)

	clk.Advance(13 * time.Hour)
	assert.Equal(t, 1, c.CollectGarbage())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, Key{"rows", "notes"}, c.Snapshot()[0].Key)
}

func TestQuery(t *testing.T) {
	c, _ := newTestCache(newSignal(true))
	defer c.Close()

	type task struct {
		Title string `json:"title"`
	}

	got, err := Query(context.Background(), c, Key{"rows", "tasks"}, func(context.Context) ([]task, error) {
		return []task{{Title: "Buy milk"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []task{{Title: "Buy milk"}}, got)
}
