package storage

import (
	"context"
	"errors"
	"log/slog"
)

// Safe wraps a Storage so that failures never reach the caller: reads that
// fail look like a missing key and failed writes are logged and dropped.
// Persisted client state is a cache of the session, not a source of truth.
type Safe struct {
	inner  Storage
	logger *slog.Logger
}

var _ Storage = (*Safe)(nil)

// NewSafe wraps inner.
func NewSafe(inner Storage, logger *slog.Logger) *Safe {
	if logger == nil {
		logger = slog.Default()
	}
	return &Safe{inner: inner, logger: logger}
}

// GetItem returns ErrNotFound for any failure.
func (s *Safe) GetItem(ctx context.Context, key string) ([]byte, error) {
	value, err := s.inner.GetItem(ctx, key)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, ErrNotFound) {
		s.logger.Warn("storage read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil, ErrNotFound
}

// SetItem logs and drops failures.
func (s *Safe) SetItem(ctx context.Context, key string, value []byte) error {
	if err := s.inner.SetItem(ctx, key, value); err != nil {
		s.logger.Warn("storage write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// RemoveItem logs and drops failures.
func (s *Safe) RemoveItem(ctx context.Context, key string) error {
	if err := s.inner.RemoveItem(ctx, key); err != nil {
		s.logger.Warn("storage remove failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// Close closes the wrapped storage.
func (s *Safe) Close() error {
	return s.inner.Close()
}
