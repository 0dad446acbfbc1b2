// Package storage re-exports the storage-unit abstraction and wires the
// infra-backed implementations. Other packages depend on storage.Store only.
package storage

import (
	"foodbike/internal/storage/core"
)

type (
	// Driver identifies a storage backend driver.
	Driver = core.Driver
	// Store is the interface for storage-unit backends.
	Store = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverMemory     = core.DriverMemory
	DriverSQLite     = core.DriverSQLite
	DriverPostgres   = core.DriverPostgres
	DriverS3         = core.DriverS3
	DriverRedis      = core.DriverRedis
	DriverMongo      = core.DriverMongo
)

// ErrNotFound reports a unit that has never been written.
var ErrNotFound = core.ErrNotFound
