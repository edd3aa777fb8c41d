package storage

import (
	"context"
	"sync"
)

// MemoryStorage is an in-memory implementation of Storage.
// Use this for tests or when nothing should outlive the process.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string][]byte)}
}

// GetItem returns a copy of the stored value.
func (m *MemoryStorage) GetItem(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

// SetItem stores a copy of value.
func (m *MemoryStorage) SetItem(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	m.items[key] = valueCopy
	return nil
}

// RemoveItem deletes key.
func (m *MemoryStorage) RemoveItem(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// Len returns the number of stored items.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close is a no-op.
func (m *MemoryStorage) Close() error {
	return nil
}
