package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Scope. It is the Ephemeral scope of a running
// process: whatever it holds is gone after a restart.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

var _ Scope = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, ErrNoValue
	}
	// Copy so callers can't mutate what we hold.
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}
