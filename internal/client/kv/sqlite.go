package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/camtrapkit/uploader/internal/client/migrations"
	"github.com/camtrapkit/uploader/internal/common"
	"github.com/camtrapkit/uploader/internal/dbx"
)

// SQLiteStore persists keys in a local SQLite database so state survives
// process restarts.
type SQLiteStore struct {
	db *sql.DB
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		log.Fatal("failed to set goose dialect:", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if necessary) the state database at dsn and applies
// migrations. The caller owns Close.
func Open(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating state db: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStore wraps an already-migrated database handle. Used by tests.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	return get(ctx, s.db, key)
}

func get(ctx context.Context, db dbx.DBTX, key string) ([]byte, error) {
	row := db.QueryRowContext(ctx, `SELECT value FROM upload_state WHERE key = ?`, key)

	var value []byte
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("reading key %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	return set(ctx, s.db, key, value)
}

func set(ctx context.Context, db dbx.DBTX, key string, value []byte) error {
	query := `INSERT INTO upload_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	_, err := db.ExecContext(ctx, query, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing key %s: %w", key, err)
	}
	return nil
}

// Update runs the read-modify-write inside one transaction so a concurrent
// reader never observes a half-applied record.
func (s *SQLiteStore) Update(ctx context.Context, key string, fn func(old []byte, found bool) ([]byte, error)) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		old, err := get(ctx, tx, key)
		found := true
		if err != nil {
			if !errors.Is(err, common.ErrorNotFound) {
				return err
			}
			found = false
		}

		next, err := fn(old, found)
		if err != nil {
			return err
		}

		return set(ctx, tx, key, next)
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM upload_state WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) ListPrefix(ctx context.Context, prefix string) ([]Pair, error) {
	query := `SELECT key, value FROM upload_state WHERE key LIKE ? || '%' ORDER BY key`

	rows, err := s.db.QueryContext(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing prefix %s: %w", prefix, err)
	}
	defer rows.Close()

	var result []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return nil, err
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
