package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"homefinder-client/internal/config"
)

// Storage types accepted by Open.
const (
	TypeMemory   = "memory"
	TypeFile     = "file"
	TypeSQLite   = "sqlite"
	TypeMySQL    = "mysql"
	TypePostgres = "postgres"
	TypeRedis    = "redis"
)

// Open builds the storage selected by cfg.Session.Storage, wrapped in Safe.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		inner Storage
		err   error
	)
	switch cfg.Session.Storage {
	case TypeMemory:
		inner = NewMemoryStorage()
	case TypeFile, "":
		dir := cfg.Session.Dir
		if dir == "" {
			dir, err = defaultDir()
			if err != nil {
				return nil, err
			}
		}
		inner, err = NewFileStorage(dir)
	case TypeSQLite:
		dsn := cfg.Session.DSN
		if dsn == "" {
			dir, derr := defaultDir()
			if derr != nil {
				return nil, derr
			}
			if derr := os.MkdirAll(dir, 0o700); derr != nil {
				return nil, fmt.Errorf("create storage dir: %w", derr)
			}
			dsn = filepath.Join(dir, "state.db")
		}
		inner, err = NewSQLStorage(ctx, DialectSQLite, dsn, logger)
	case TypeMySQL, TypePostgres:
		if cfg.Session.DSN == "" {
			return nil, fmt.Errorf("SESSION_DSN is required for %s storage", cfg.Session.Storage)
		}
		inner, err = NewSQLStorage(ctx, cfg.Session.Storage, cfg.Session.DSN, logger)
	case TypeRedis:
		inner, err = NewRedisStorage(ctx, RedisConfig{
			Addr:      cfg.Redis.Address(),
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown SESSION_STORAGE %q", cfg.Session.Storage)
	}
	if err != nil {
		return nil, err
	}
	return NewSafe(inner, logger), nil
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".homefinder"), nil
}
