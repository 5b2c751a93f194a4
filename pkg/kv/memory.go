package kv

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is a process-local Store and Locker for tests and single-node dev runs.
type Memory struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{data: map[string]memoryEntry{}, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(key)
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(key, value, ttl)
}

func (m *Memory) Take(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.lookup(key)
	delete(m.data, key)
	return value, ok
}

func (m *Memory) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

func (m *Memory) Acquire(_ context.Context, key string, ttl time.Duration) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.lookup(key); held {
		return "", false
	}
	token := uuid.NewString()
	m.store(key, token, ttl)
	return token, true
}

func (m *Memory) Release(_ context.Context, key, token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if holder, ok := m.lookup(key); ok && holder == token {
		delete(m.data, key)
	}
}

// Keys lists live keys; tests use it to assert what was persisted.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		if _, ok := m.lookup(key); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

func (m *Memory) lookup(key string) (string, bool) {
	entry, ok := m.data[key]
	if !ok {
		return "", false
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.data, key)
		return "", false
	}
	return entry.value, true
}

func (m *Memory) store(key, value string, ttl time.Duration) {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.data[key] = entry
}
