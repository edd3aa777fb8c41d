package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// Supported SQL dialects.
const (
	DialectSQLite   = "sqlite"
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know.
	sqlx.BindDriver(DialectSQLite, sqlx.QUESTION)
}

var createTableQueries = map[string]string{
	DialectSQLite: `
	CREATE TABLE IF NOT EXISTS client_storage (
		item_key   TEXT PRIMARY KEY,
		item_value BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	DialectMySQL: `
	CREATE TABLE IF NOT EXISTS client_storage (
		item_key   VARCHAR(191) NOT NULL PRIMARY KEY,
		item_value LONGBLOB NOT NULL,
		updated_at DATETIME(6) NOT NULL
	)`,
	DialectPostgres: `
	CREATE TABLE IF NOT EXISTS client_storage (
		item_key   TEXT PRIMARY KEY,
		item_value BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

var upsertQueries = map[string]string{
	DialectSQLite: `
		INSERT INTO client_storage (item_key, item_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(item_key) DO UPDATE SET
			item_value = excluded.item_value,
			updated_at = excluded.updated_at`,
	DialectMySQL: `
		INSERT INTO client_storage (item_key, item_value, updated_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			item_value = VALUES(item_value),
			updated_at = VALUES(updated_at)`,
	DialectPostgres: `
		INSERT INTO client_storage (item_key, item_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (item_key) DO UPDATE SET
			item_value = EXCLUDED.item_value,
			updated_at = EXCLUDED.updated_at`,
}

// SQLStorage implements Storage on a single table in SQLite, MySQL or PostgreSQL.
type SQLStorage struct {
	db      *sqlx.DB
	dialect string
}

var _ Storage = (*SQLStorage)(nil)

// NewSQLStorage opens dsn with the given dialect and creates the table if needed.
// For SQLite, dsn is a file path.
func NewSQLStorage(ctx context.Context, dialect, dsn string, logger *slog.Logger) (*SQLStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	createTable, ok := createTableQueries[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}

	openDSN := dsn
	if dialect == DialectSQLite {
		openDSN = sqliteDSN(dsn)
	}

	db, err := sqlx.Open(dialect, openDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1) // SQLite only supports 1 writer
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", dialect, err)
	}

	if _, err := db.ExecContext(ctx, createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info("sql storage initialized", slog.String("dialect", dialect))
	return &SQLStorage{db: db, dialect: dialect}, nil
}

// sqliteDSN appends the WAL and busy-timeout pragmas, keeping any query
// parameters already present in dsn.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// GetItem returns the stored value for key.
func (s *SQLStorage) GetItem(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, s.db.Rebind(`SELECT item_value FROM client_storage WHERE item_key = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %s: %w", key, err)
	}
	return value, nil
}

// SetItem upserts value under key.
func (s *SQLStorage) SetItem(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(upsertQueries[s.dialect]), key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set item %s: %w", key, err)
	}
	return nil
}

// RemoveItem deletes key.
func (s *SQLStorage) RemoveItem(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM client_storage WHERE item_key = ?`), key)
	if err != nil {
		return fmt.Errorf("failed to remove item %s: %w", key, err)
	}
	return nil
}

// keys lists stored keys in order.
func (s *SQLStorage) keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, `SELECT item_key FROM client_storage ORDER BY item_key`); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// Close closes the database connection.
func (s *SQLStorage) Close() error {
	return s.db.Close()
}
