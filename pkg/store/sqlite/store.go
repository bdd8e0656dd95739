// Package sqlite provides a SQLite-backed store.Store. Each row holds one raw
// setting value keyed by owner class, owner id and setting name.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-settings/internal/sqlitemigrate"
	"github.com/goliatone/go-settings/pkg/store"
	"github.com/goliatone/go-settings/pkg/store/sqlite/migrations"
)

var errNotConfigured = errors.New("sqlite: store is not configured")

// Store persists raw setting values in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the time source used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens (creating when needed) the database at path and applies the
// embedded migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlite: ping db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlite: run migrations: %w", err)
	}
	s := &Store{sqlDB: sqlDB, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context, owner store.Owner) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return errNotConfigured
	}
	return owner.Validate()
}

func (s *Store) Get(ctx context.Context, owner store.Owner, key string) (string, bool, error) {
	if err := s.ready(ctx, owner); err != nil {
		return "", false, err
	}
	var raw string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE owner_class = ? AND owner_id = ? AND name = ?`,
		strings.TrimSpace(owner.Class), strings.TrimSpace(owner.ID), key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite: get %s %q: %w", owner, key, err)
	}
	return raw, true, nil
}

func (s *Store) Set(ctx context.Context, owner store.Owner, key, raw string) error {
	if err := s.ready(ctx, owner); err != nil {
		return err
	}
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	now := s.now().UTC().UnixMilli()
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO settings (owner_class, owner_id, name, value, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (owner_class, owner_id, name)
		 DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		strings.TrimSpace(owner.Class), strings.TrimSpace(owner.ID), key, raw, now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: set %s %q: %w", owner, key, err)
	}
	return nil
}

func (s *Store) All(ctx context.Context, owner store.Owner) (map[string]string, error) {
	if err := s.ready(ctx, owner); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT name, value FROM settings WHERE owner_class = ? AND owner_id = ? ORDER BY name`,
		strings.TrimSpace(owner.Class), strings.TrimSpace(owner.ID),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list %s: %w", owner, err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("sqlite: scan %s: %w", owner, err)
		}
		out[name] = raw
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate %s: %w", owner, err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, owner store.Owner, key string) error {
	if err := s.ready(ctx, owner); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM settings WHERE owner_class = ? AND owner_id = ? AND name = ?`,
		strings.TrimSpace(owner.Class), strings.TrimSpace(owner.ID), key,
	)
	if err != nil {
		return fmt.Errorf("sqlite: delete %s %q: %w", owner, key, err)
	}
	return nil
}

// Timestamps returns when key was first stored and last updated for owner.
func (s *Store) Timestamps(ctx context.Context, owner store.Owner, key string) (created, updated time.Time, ok bool, err error) {
	if err := s.ready(ctx, owner); err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	var createdMillis, updatedMillis int64
	err = s.sqlDB.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM settings WHERE owner_class = ? AND owner_id = ? AND name = ?`,
		strings.TrimSpace(owner.Class), strings.TrimSpace(owner.ID), key,
	).Scan(&createdMillis, &updatedMillis)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("sqlite: timestamps %s %q: %w", owner, key, err)
	}
	return time.UnixMilli(createdMillis).UTC(), time.UnixMilli(updatedMillis).UTC(), true, nil
}
