package session

import (
	"context"
	"sync"
)

// MemoryKV keeps entries in process memory. It backs the CLI's --ephemeral
// mode and tests.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string]map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string]map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, profileID, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[profileID][key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, profileID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[profileID] == nil {
		m.entries[profileID] = make(map[string]string)
	}
	m.entries[profileID][key] = value
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, profileID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries[profileID], key)
	return nil
}
