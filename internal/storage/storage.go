package storage

import "context"

// Storage is a durable key/value store for persisted client state.
// Implementations are safe for concurrent use.
type Storage interface {
	// GetItem returns the stored value. Returns ErrNotFound if the key is absent.
	GetItem(ctx context.Context, key string) ([]byte, error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key string, value []byte) error

	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error

	// Close releases the underlying resources.
	Close() error
}

// Common storage errors
type StorageError string

func (e StorageError) Error() string { return string(e) }

const (
	// ErrNotFound indicates the key is not stored.
	ErrNotFound StorageError = "storage: item not found"
)
