// Package sqlitestore keeps the session token in a SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrEthical07/authui/store"
	"github.com/MrEthical07/authui/store/sqlitestore/migrations"
	_ "modernc.org/sqlite"
)

var _ store.TokenStore = (*Store)(nil)

// Store is a SQLite-backed TokenStore. One row per key in table tokens.
type Store struct {
	sqlDB *sql.DB
	key   string
	now   func() time.Time
}

// Open opens and migrates the database at path.
func Open(ctx context.Context, path, key string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlitestore: path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlitestore: ping db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlitestore: run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB, key: store.NormalizeKey(key), now: time.Now}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load returns the token row for the store key or store.ErrNoToken.
func (s *Store) Load(ctx context.Context) (string, error) {
	var token string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT token FROM tokens WHERE key = ?`, s.key).Scan(&token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrNoToken
		}
		return "", fmt.Errorf("sqlitestore: load token: %w", err)
	}
	return token, nil
}

// Save upserts the token row and stamps updated_at.
func (s *Store) Save(ctx context.Context, token string) error {
	if token == "" {
		return store.ErrEmptyToken
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO tokens (key, token, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		    token = excluded.token,
		    updated_at = excluded.updated_at`,
		s.key, token, s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: save token: %w", err)
	}
	return nil
}

// Delete removes the token row. A missing row is not an error.
func (s *Store) Delete(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM tokens WHERE key = ?`, s.key); err != nil {
		return fmt.Errorf("sqlitestore: delete token: %w", err)
	}
	return nil
}

// UpdatedAt returns when the token was last saved.
func (s *Store) UpdatedAt(ctx context.Context) (time.Time, error) {
	var millis int64
	err := s.sqlDB.QueryRowContext(ctx, `SELECT updated_at FROM tokens WHERE key = ?`, s.key).Scan(&millis)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, store.ErrNoToken
		}
		return time.Time{}, fmt.Errorf("sqlitestore: load updated_at: %w", err)
	}
	return time.UnixMilli(millis).UTC(), nil
}
