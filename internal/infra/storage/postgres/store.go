package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"foodbike/internal/storage/core"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/foodbike?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists storage units as rows of the foodbike_units table. Payloads
// are stored as BYTEA so a corrupt unit can still be backed up verbatim.
type Store struct {
	db *sql.DB
}

// New opens a Postgres-backed store using dsn (falls back to defaultDSN),
// pings it and ensures the units table exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureUnitsTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureUnitsTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS foodbike_units (
		name TEXT PRIMARY KEY,
		payload BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure units table: %w", err)
	}
	return nil
}

func (s *Store) Driver() core.Driver { return core.DriverPostgres }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Read(ctx context.Context, unit string) ([]byte, error) {
	if err := core.ValidateUnitName(unit); err != nil {
		return nil, err
	}
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM foodbike_units WHERE name = $1`, unit).Scan(&payload)
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
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO foodbike_units(name, payload, updated_at) VALUES($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		unit, data); err != nil {
		return fmt.Errorf("upsert %s: %w", unit, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, unit string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM foodbike_units WHERE name = $1`, unit)
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
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM foodbike_units WHERE name LIKE $1 ORDER BY name`, escapeLike(prefix)+"%")
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
		out = append(out, name)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
