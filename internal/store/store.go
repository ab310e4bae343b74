// Package store provides the local durable store: an embedded SQLite
// database holding the on-device working copy of every entity kind.
//
// The store is a dumb persistent cache, key-partitioned by entity kind.
// Each kind's working copy is one JSON array persisted under a fixed key
// (sales, customers, clientOrders, syncQueue); settings scalars live under
// individual keys. The store performs no validation and no write buffering:
// every mutation is visible to the next read in the same process.
//
// Read-modify-write cycles for a key run under a per-key lock, which is what
// makes a realtime fold and a snapshot replace for the same kind mutually
// exclusive.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store wraps the embedded SQLite database holding the device's working
// copies. It is safe for concurrent use.
type Store struct {
	conn *sql.DB
	path string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// ErrNoValue is returned by GetValue for keys that have never been set.
var ErrNoValue = errors.New("no value for key")

// Open creates or opens the store database at the given path.
//
// The database runs in embedded mode with WAL so that the serve process can
// fold realtime changes while the CLI reads. The caller must Close the
// store when done.
//
// Example:
//
//	st, err := store.Open(".pureflow/pos.db")
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping store: %w", err)
	}

	st := &Store{
		conn:  conn,
		path:  path,
		locks: make(map[string]*sync.Mutex),
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := st.conn.Exec(pragma); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if err := st.initSchema(context.Background()); err != nil {
		_ = st.Close()
		return nil, err
	}

	return st, nil
}

// Path returns the store's database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the store after checkpointing the WAL.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	s.conn = nil
	return nil
}

// initSchema creates the key/value table. Idempotent.
func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize store schema: %w", err)
	}
	return nil
}

// keyLock returns the mutex guarding read-modify-write cycles for key.
func (s *Store) keyLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[key] = mu
	}
	return mu
}

// GetValue reads a scalar value. Returns ErrNoValue if the key is unset.
func (s *Store) GetValue(ctx context.Context, key string) (string, error) {
	var value string
	err := s.conn.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNoValue, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// SetValue writes a scalar value.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	query := `
	INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.conn.ExecContext(ctx, query, key, value, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// List reads the JSON array persisted under key into a typed slice.
// A key that has never been written yields an empty slice.
func List[T any](ctx context.Context, s *Store, key string) ([]T, error) {
	raw, err := s.GetValue(ctx, key)
	if errors.Is(err, ErrNoValue) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return items, nil
}

// Replace overwrites the JSON array persisted under key.
func Replace[T any](ctx context.Context, s *Store, key string, items []T) error {
	mu := s.keyLock(key)
	mu.Lock()
	defer mu.Unlock()
	return replaceLocked(ctx, s, key, items)
}

// Append appends one item to the JSON array persisted under key.
func Append[T any](ctx context.Context, s *Store, key string, item T) error {
	return Mutate(ctx, s, key, func(items []T) ([]T, error) {
		return append(items, item), nil
	})
}

// Mutate runs a read-modify-write cycle for key under its lock.
//
// fn receives the current items and returns the items to persist. Returning
// an error abandons the write and leaves the stored copy untouched.
func Mutate[T any](ctx context.Context, s *Store, key string, fn func(items []T) ([]T, error)) error {
	mu := s.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	items, err := List[T](ctx, s, key)
	if err != nil {
		return err
	}

	next, err := fn(items)
	if err != nil {
		return err
	}

	return replaceLocked(ctx, s, key, next)
}

// replaceLocked persists items under key. Callers hold the key lock.
func replaceLocked[T any](ctx context.Context, s *Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.SetValue(ctx, key, string(data))
}

// Count returns the number of items persisted under key.
func Count[T any](ctx context.Context, s *Store, key string) (int, error) {
	items, err := List[T](ctx, s, key)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}
