package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"foodbike/internal/infra/persistence/memory"
)

// SchemaVersion is the current storage-unit document version. Older versions
// decode as long as fields were only added.
const SchemaVersion = 1

// Storage unit names, one per collection plus the manifest.
const (
	UnitAccounts     = "accounts"
	UnitRestaurants  = "restaurants"
	UnitOrders       = "orders"
	UnitApplications = "applications"
	UnitAuditEntries = "audit_entries"
	UnitReviews      = "reviews"
	UnitManifest     = "manifest"
)

// CollectionUnits lists the collection units in load and flush order.
var CollectionUnits = []string{UnitAccounts, UnitRestaurants, UnitOrders, UnitApplications, UnitAuditEntries, UnitReviews}

var (
	// ErrSchemaTooNew reports a unit written by a newer schema.
	ErrSchemaTooNew = errors.New("unit schema version is newer than supported")
	// ErrCollectionMismatch reports a unit whose collection name differs from the unit it was read from.
	ErrCollectionMismatch = errors.New("unit collection mismatch")
)

type unitDocument[T any] struct {
	SchemaVersion int          `json:"schema_version"`
	Collection    string       `json:"collection"`
	SavedAt       time.Time    `json:"saved_at"`
	Order         []string     `json:"order"`
	Records       map[string]T `json:"records"`
}

func encodeUnit[T any](unit string, c memory.Collection[T], savedAt time.Time) ([]byte, error) {
	doc := unitDocument[T]{
		SchemaVersion: SchemaVersion,
		Collection:    unit,
		SavedAt:       savedAt.UTC(),
		Order:         c.Order,
		Records:       c.Records,
	}
	if doc.Order == nil {
		doc.Order = []string{}
	}
	if doc.Records == nil {
		doc.Records = map[string]T{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", unit, err)
	}
	return data, nil
}

func decodeUnit[T any](unit string, data []byte) (memory.Collection[T], error) {
	var doc unitDocument[T]
	if err := json.Unmarshal(data, &doc); err != nil {
		return memory.Collection[T]{}, fmt.Errorf("decode %s: %w", unit, err)
	}
	if doc.SchemaVersion > SchemaVersion {
		return memory.Collection[T]{}, fmt.Errorf("decode %s: %w (%d > %d)", unit, ErrSchemaTooNew, doc.SchemaVersion, SchemaVersion)
	}
	if doc.Collection != unit {
		return memory.Collection[T]{}, fmt.Errorf("decode %s: %w: found %q", unit, ErrCollectionMismatch, doc.Collection)
	}
	return memory.Collection[T]{Records: doc.Records, Order: doc.Order}, nil
}

// Manifest summarizes the last successful flush. It is informational; the
// collection units are authoritative.
type Manifest struct {
	SchemaVersion int            `json:"schema_version"`
	SavedAt       time.Time      `json:"saved_at"`
	Driver        string         `json:"driver"`
	Counts        map[string]int `json:"counts"`
}

func encodeManifest(driver string, snap memory.Snapshot, savedAt time.Time) ([]byte, error) {
	m := Manifest{
		SchemaVersion: SchemaVersion,
		SavedAt:       savedAt.UTC(),
		Driver:        driver,
		Counts: map[string]int{
			UnitAccounts:     snap.Accounts.Len(),
			UnitRestaurants:  snap.Restaurants.Len(),
			UnitOrders:       snap.Orders.Len(),
			UnitApplications: snap.Applications.Len(),
			UnitAuditEntries: snap.AuditEntries.Len(),
			UnitReviews:      snap.Reviews.Len(),
		},
	}
	return json.Marshal(m)
}

func decodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// backupUnitName names the copy of an undecodable unit.
func backupUnitName(unit string, at time.Time) string {
	return fmt.Sprintf("%s.backup-%d", unit, at.UnixMilli())
}
