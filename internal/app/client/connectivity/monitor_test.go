package connectivity

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func receive(t *testing.T, ch <-chan bool) bool {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("no transition received")
		return false
	}
}

func TestMonitor_Transitions(t *testing.T) {
	m := NewMonitor(true)
	assert.True(t, m.Online())

	ch, cancel := m.Subscribe()
	defer cancel()

	go func() {
		m.Set(true) // не событие
		m.Set(false)
		m.Set(false)
		m.Set(true)
	}()

	assert.False(t, receive(t, ch))
	assert.True(t, receive(t, ch))

	select {
	case v := <-ch:
		t.Fatalf("unexpected transition %v", v)
	case <-time.After(50 * time.Millisecond):
	}
	assert.True(t, m.Online())
}

func TestMonitor_CancelDoesNotBlockSet(t *testing.T) {
	m := NewMonitor(false)
	_, cancel := m.Subscribe()
	cancel()
	cancel()

	done := make(chan struct{})
	go func() {
		m.Set(true)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Set blocked on cancelled subscriber")
	}
}

type fakeChecker struct {
	healthy atomic.Bool
}

func (f *fakeChecker) HealthCheck(context.Context) error {
	if f.healthy.Load() {
		return nil
	}
	return errors.New("connection refused")
}

func TestProbe_Check(t *testing.T) {
	m := NewMonitor(true)
	checker := &fakeChecker{}
	p := NewProbe(m, checker, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.False(t, p.Check(context.Background()))
	assert.False(t, m.Online())

	checker.healthy.Store(true)
	assert.True(t, p.Check(context.Background()))
	assert.True(t, m.Online())
}

func TestProbe_Run(t *testing.T) {
	m := NewMonitor(true)
	checker := &fakeChecker{}
	p := NewProbe(m, checker, 10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ch, cancel := m.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go p.Run(ctx)

	require.False(t, receive(t, ch))
	checker.healthy.Store(true)
	require.True(t, receive(t, ch))
}
