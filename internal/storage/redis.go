package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds configuration for Redis storage.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStorage implements Storage on Redis strings. A set at
// "<prefix>keys" tracks the stored keys so Clear can remove them.
type RedisStorage struct {
	client    *redis.Client
	keyPrefix string
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage connects to Redis and verifies the connection.
func NewRedisStorage(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*RedisStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     5,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "homefinder:"
	}

	logger.Info("redis storage initialized", slog.String("addr", cfg.Addr), slog.String("prefix", keyPrefix))
	return &RedisStorage{client: client, keyPrefix: keyPrefix}, nil
}

func (r *RedisStorage) indexKey() string {
	return r.keyPrefix + "keys"
}

// GetItem returns the value stored for key.
func (r *RedisStorage) GetItem(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %s: %w", key, err)
	}
	return value, nil
}

// SetItem stores value without expiry.
func (r *RedisStorage) SetItem(ctx context.Context, key string, value []byte) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.keyPrefix+key, value, 0)
	pipe.SAdd(ctx, r.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set item %s: %w", key, err)
	}
	return nil
}

// RemoveItem deletes key.
func (r *RedisStorage) RemoveItem(ctx context.Context, key string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.keyPrefix+key)
	pipe.SRem(ctx, r.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove item %s: %w", key, err)
	}
	return nil
}

// Clear removes every key written through this storage.
func (r *RedisStorage) Clear(ctx context.Context) error {
	keys, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}
	full := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		full = append(full, r.keyPrefix+k)
	}
	full = append(full, r.indexKey())
	return r.client.Del(ctx, full...).Err()
}

// Close closes the Redis connection.
func (r *RedisStorage) Close() error {
	return r.client.Close()
}
