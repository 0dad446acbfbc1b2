package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"foodbike/internal/storage/core"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Store persists storage units as rows of a single SQLite table.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the sqlite file at path and ensures the units table.
func New(path string) (*Store, error) {
	if path == "" {
		path = "foodbike.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS units (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create units table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverSQLite }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

func (s *Store) Read(ctx context.Context, unit string) ([]byte, error) {
	if err := core.ValidateUnitName(unit); err != nil {
		return nil, err
	}
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM units WHERE name = ?`, unit).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFound(unit)
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", unit, err)
	}
	return payload, nil
}

func (s *Store) Write(ctx context.Context, unit string, data []byte) error {
	if err := core.ValidateUnitName(unit); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO units(name, payload, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		unit, data, now); err != nil {
		return fmt.Errorf("upsert %s: %w", unit, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, unit string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM units WHERE name = ?`, unit)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", unit, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", unit, err)
	}
	return n > 0, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM units ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }
