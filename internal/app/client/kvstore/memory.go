package kvstore

import (
	"context"
	"sync"
)

// MemoryStore хранилище в памяти; используется, когда sqlite недоступен.
// Данные живут только в пределах сессии.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]string
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, partition, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", ErrClosed
	}
	value, ok := m.data[partition][key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *MemoryStore) Set(_ context.Context, partition, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	p, ok := m.data[partition]
	if !ok {
		p = make(map[string]string)
		m.data[partition] = p
	}
	p[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, partition, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.data[partition], key)
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
