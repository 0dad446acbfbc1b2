// Package core defines the storage-unit abstraction shared by every durable
// backend. A unit is one named, whole-document blob that is rewritten in full
// on every flush.
package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Driver identifies a concrete storage backend implementation.
type Driver string

const (
	// DriverFilesystem stores each unit as a file under a root directory.
	DriverFilesystem Driver = "fs"
	// DriverMemory keeps units in process memory (tests, ephemeral runs).
	DriverMemory Driver = "memory"
	// DriverSQLite stores units as rows of an embedded sqlite table.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres stores units as rows of a PostgreSQL table.
	DriverPostgres Driver = "postgres"
	// DriverS3 stores units as objects in an S3 / MinIO bucket.
	DriverS3 Driver = "s3"
	// DriverRedis stores units as string keys in Redis.
	DriverRedis Driver = "redis"
	// DriverMongo stores units as documents of a MongoDB collection.
	DriverMongo Driver = "mongo"
)

// Drivers lists every supported driver.
func Drivers() []Driver {
	return []Driver{DriverFilesystem, DriverMemory, DriverSQLite, DriverPostgres, DriverS3, DriverRedis, DriverMongo}
}

// Store reads and overwrites named storage units.
type Store interface {
	// Read returns the unit payload or an error matching ErrNotFound.
	Read(ctx context.Context, unit string) ([]byte, error)
	// Write replaces the unit payload in full.
	Write(ctx context.Context, unit string, data []byte) error
	// Delete removes a unit and reports whether it existed.
	Delete(ctx context.Context, unit string) (bool, error)
	// List returns unit names starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	Driver() Driver
	Close() error
}

// ErrNotFound is returned by Read when a unit has never been written.
var ErrNotFound = errors.New("storage: unit not found")

var unitNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)

// ValidateUnitName rejects names that could escape a backend's namespace.
func ValidateUnitName(name string) error {
	if !unitNamePattern.MatchString(name) {
		return fmt.Errorf("invalid unit name %q", name)
	}
	if len(name) > 200 {
		return fmt.Errorf("unit name %q too long", name)
	}
	return nil
}

// NotFound wraps ErrNotFound with the unit name.
func NotFound(unit string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, unit)
}
