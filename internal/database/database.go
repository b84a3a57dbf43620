package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

const createKVTable = `
	CREATE TABLE IF NOT EXISTS quiz_kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// DB is a Postgres-backed Medium. Every key is one row of quiz_kv. When
// Channel is set, writes are announced with pg_notify so other processes
// sharing the database can pick them up through a PostgresWatcher.
type DB struct {
	*sql.DB
	Channel string
	Origin  string
}

func NewDB(connStr string) (*DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &DB{DB: db}, nil
}

// Migrate creates the key-value table when missing.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, createKVTable)
	return err
}

func (db *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(ctx, "SELECT value FROM quiz_kv WHERE key = $1", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (db *DB) Set(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO quiz_kv (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return db.notify(ctx, key)
}

func (db *DB) Delete(ctx context.Context, key string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM quiz_kv WHERE key = $1", key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return db.notify(ctx, key)
}

func (db *DB) notify(ctx context.Context, key string) error {
	if db.Channel == "" {
		return nil
	}
	if _, err := db.ExecContext(ctx, "SELECT pg_notify($1, $2)", db.Channel, encodeChange(db.Origin, key)); err != nil {
		return fmt.Errorf("notify %s: %w", key, err)
	}
	return nil
}
