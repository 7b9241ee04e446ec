// README: Key-value settings store backed by PostgreSQL, with an in-memory fallback.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a generic settings lookup. Get reports ok=false for unset keys.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
	// Modify reads keys, passes their current values to fn and writes back
	// whatever fn returns, as one unit. Concurrent calls are serialized.
	// If fn or any write fails nothing is changed.
	Modify(ctx context.Context, keys []string, fn func(current map[string]string) (map[string]string, error)) error
}

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertSQL = `
INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the settings table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create settings table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.Exec(ctx, upsertSQL, key, value)
	return err
}

// modifyLockID names the advisory lock taken by Modify. Row locks alone do not
// cover keys that have never been written.
const modifyLockID = 7_245_110

func (s *PostgresStore) Modify(ctx context.Context, keys []string, fn func(map[string]string) (map[string]string, error)) (err error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin settings tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, modifyLockID); err != nil {
		return fmt.Errorf("lock settings: %w", err)
	}
	rows, err := tx.Query(ctx, `SELECT key, value FROM settings WHERE key = ANY($1) FOR UPDATE`, keys)
	if err != nil {
		return err
	}
	current, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (kv [2]string, err error) {
		err = row.Scan(&kv[0], &kv[1])
		return kv, err
	})
	if err != nil {
		return err
	}
	values := make(map[string]string, len(current))
	for _, kv := range current {
		values[kv[0]] = kv[1]
	}

	writes, err := fn(values)
	if err != nil {
		return err
	}
	for k, v := range writes {
		if _, err = tx.Exec(ctx, upsertSQL, k, v); err != nil {
			return fmt.Errorf("write setting %s: %w", k, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.Query(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// MemoryStore keeps settings in process. Used when no database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore(initial map[string]string) *MemoryStore {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MemoryStore{values: values}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Modify(_ context.Context, keys []string, fn func(map[string]string) (map[string]string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := s.values[k]; ok {
			current[k] = v
		}
	}
	writes, err := fn(current)
	if err != nil {
		return err
	}
	for k, v := range writes {
		s.values[k] = v
	}
	return nil
}

func (s *MemoryStore) All(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}
