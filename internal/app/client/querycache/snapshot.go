package querycache

import (
	"encoding/json"
	"sort"
	"time"
)

// EntrySnapshot сериализуемое состояние одной записи
type EntrySnapshot struct {
	Key         Key             `json:"key"`
	Data        json.RawMessage `json:"data"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	LastAccess  time.Time       `json:"lastAccess"`
	Invalidated bool            `json:"invalidated,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Snapshot возвращает записи с данными, упорядоченные по ключу
func (c *Cache) Snapshot() []EntrySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]EntrySnapshot, 0, len(c.entries))
	for _, e := range c.entries {
		if !e.hasData() {
			continue
		}
		out = append(out, EntrySnapshot{
			Key:         e.key,
			Data:        e.data,
			UpdatedAt:   e.updatedAt,
			LastAccess:  e.lastAccess,
			Invalidated: e.invalidated,
			Error:       e.err,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

// Hydrate заполняет кэш восстановленными записями, не затирая уже загруженные
func (c *Cache) Hydrate(entries []EntrySnapshot) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	restored := 0
	for _, s := range entries {
		if len(s.Key) == 0 || s.Data == nil {
			continue
		}
		k := s.Key.String()
		if e, ok := c.entries[k]; ok && e.hasData() {
			continue
		}
		c.entries[k] = &entry{
			key:         s.Key,
			data:        s.Data,
			updatedAt:   s.UpdatedAt,
			lastAccess:  s.LastAccess,
			invalidated: s.Invalidated,
			err:         s.Error,
		}
		restored++
	}
	return restored
}
