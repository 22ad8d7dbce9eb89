// Package connectivity отдает единый сигнал "клиент онлайн" и уведомляет
// подписчиков о переходах между онлайн и офлайн.
package connectivity

import "sync"

type Monitor struct {
	mu     sync.RWMutex
	online bool
	nextID int
	subs   map[int]*subscription
}

type subscription struct {
	ch   chan bool
	done chan struct{}
}

// NewMonitor создает монитор с начальным состоянием сети
func NewMonitor(initial bool) *Monitor {
	return &Monitor{
		online: initial,
		subs:   make(map[int]*subscription),
	}
}

func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Set сообщает о событии сети. Повтор текущего значения событием не считается.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]*subscription, 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	m.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- online:
		case <-s.done:
		}
	}
}

// Subscribe возвращает канал переходов и функцию отписки.
// Подписчик обязан читать канал, пока не отпишется.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	s := &subscription{
		ch:   make(chan bool),
		done: make(chan struct{}),
	}
	m.subs[id] = s

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(s.done)
		})
	}
	return s.ch, cancel
}
