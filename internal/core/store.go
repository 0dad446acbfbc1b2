package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"foodbike/internal/infra/persistence/memory"
	"foodbike/internal/logger"
	"foodbike/internal/metrics"
	"foodbike/internal/storage"
	"foodbike/pkg/domain"
)

var _ domain.PersistentStore = (*EntityStore)(nil)

// EntityStore keeps every collection in memory and rewrites each collection's
// storage unit after every committed mutation.
type EntityStore struct {
	mu      sync.Mutex
	mem     *memory.Store
	units   storage.Store
	log     *logger.Logger
	metrics *metrics.StoreMetrics
}

// LoadReport lists units that could not be restored on load.
type LoadReport struct {
	Missing   []string
	Reset     []string
	BackedUp  map[string]string
	ReadFails []string
}

// NewEntityStore wires the in-memory state to a unit backend. Call Load before use.
func NewEntityStore(units storage.Store, log *logger.Logger, m *metrics.StoreMetrics) *EntityStore {
	if log == nil {
		log = logger.Nop()
	}
	return &EntityStore{
		mem:     memory.NewStore(domain.NewDefaultRulesEngine()),
		units:   units,
		log:     log,
		metrics: m,
	}
}

// SetNowFunc replaces the clock used to stamp records.
func (s *EntityStore) SetNowFunc(fn func() time.Time) { s.mem.SetNowFunc(fn) }

// Now returns the current store time.
func (s *EntityStore) Now() time.Time { return s.mem.NowFunc()() }

// Units exposes the unit backend.
func (s *EntityStore) Units() storage.Store { return s.units }

// Load restores every collection. A unit that is missing starts empty; a unit
// that cannot be decoded is copied aside and starts empty. Neither is an error.
func (s *EntityStore) Load(ctx context.Context) LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := LoadReport{BackedUp: make(map[string]string)}
	var snap memory.Snapshot
	snap.Accounts = loadCollection[Account](ctx, s, UnitAccounts, &report)
	snap.Restaurants = loadCollection[Restaurant](ctx, s, UnitRestaurants, &report)
	snap.Orders = loadCollection[Order](ctx, s, UnitOrders, &report)
	snap.Applications = loadCollection[Application](ctx, s, UnitApplications, &report)
	snap.AuditEntries = loadCollection[AuditEntry](ctx, s, UnitAuditEntries, &report)
	snap.Reviews = loadCollection[Review](ctx, s, UnitReviews, &report)
	s.mem.ImportState(snap)
	s.checkManifest(ctx, snap)

	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"driver": string(s.units.Driver()),
		"state":  snap.String(),
	}), "entity store loaded")
	return report
}

func loadCollection[T any](ctx context.Context, s *EntityStore, unit string, report *LoadReport) memory.Collection[T] {
	uctx := s.log.WithUnit(ctx, unit)
	data, err := s.units.Read(ctx, unit)
	if errors.Is(err, storage.ErrNotFound) {
		report.Missing = append(report.Missing, unit)
		return memory.Collection[T]{}
	}
	if err != nil {
		report.ReadFails = append(report.ReadFails, unit)
		s.metrics.IncLoadFailure(unit)
		s.log.Warn(s.log.WithField(uctx, "error", err.Error()), "storage unit unreadable, starting empty")
		return memory.Collection[T]{}
	}
	c, err := decodeUnit[T](unit, data)
	if err != nil {
		report.Reset = append(report.Reset, unit)
		s.metrics.IncLoadFailure(unit)
		backup := backupUnitName(unit, s.Now())
		if werr := s.units.Write(ctx, backup, data); werr != nil {
			s.log.Warn(s.log.WithField(uctx, "error", werr.Error()), "backup of undecodable unit failed")
		} else {
			report.BackedUp[unit] = backup
		}
		s.log.Warn(s.log.WithFields(uctx, map[string]any{"error": err.Error(), "backup": backup}), "storage unit undecodable, starting empty")
		return memory.Collection[T]{}
	}
	return c
}

func (s *EntityStore) checkManifest(ctx context.Context, snap memory.Snapshot) {
	data, err := s.units.Read(ctx, UnitManifest)
	if err != nil {
		return
	}
	m, err := decodeManifest(data)
	if err != nil {
		s.log.Warn(s.log.WithField(ctx, "error", err.Error()), "manifest undecodable")
		return
	}
	loaded := map[string]int{
		UnitAccounts:     snap.Accounts.Len(),
		UnitRestaurants:  snap.Restaurants.Len(),
		UnitOrders:       snap.Orders.Len(),
		UnitApplications: snap.Applications.Len(),
		UnitAuditEntries: snap.AuditEntries.Len(),
		UnitReviews:      snap.Reviews.Len(),
	}
	for unit, want := range m.Counts {
		if got, ok := loaded[unit]; ok && got != want {
			s.log.Warn(s.log.WithFields(ctx, map[string]any{"unit": unit, "manifest": want, "loaded": got}), "loaded count differs from manifest")
		}
	}
}

// Flush writes every unit. Units are written independently; failures are
// reported together as a *domain.StorageWriteError after all writes ran.
func (s *EntityStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

func (s *EntityStore) flushLocked(ctx context.Context) error {
	start := time.Now()
	snap := s.mem.ExportState()
	savedAt := s.Now()

	payloads := make(map[string][]byte, len(CollectionUnits)+1)
	var encodeErr error
	put := func(unit string, data []byte, err error) {
		if err != nil {
			encodeErr = errors.Join(encodeErr, err)
			return
		}
		payloads[unit] = data
	}
	put(unitPayload(UnitAccounts, snap.Accounts, savedAt))
	put(unitPayload(UnitRestaurants, snap.Restaurants, savedAt))
	put(unitPayload(UnitOrders, snap.Orders, savedAt))
	put(unitPayload(UnitApplications, snap.Applications, savedAt))
	put(unitPayload(UnitAuditEntries, snap.AuditEntries, savedAt))
	put(unitPayload(UnitReviews, snap.Reviews, savedAt))

	var failed []string
	var joined error
	if encodeErr != nil {
		joined = encodeErr
	}
	for _, unit := range CollectionUnits {
		data, ok := payloads[unit]
		if !ok {
			failed = append(failed, unit)
			continue
		}
		if err := s.units.Write(ctx, unit, data); err != nil {
			failed = append(failed, unit)
			joined = errors.Join(joined, fmt.Errorf("%s: %w", unit, err))
			s.metrics.IncWriteFailure(unit)
			s.log.Error(s.log.WithUnit(ctx, unit), "storage unit write failed", err)
		}
	}
	if len(failed) == 0 {
		manifest, err := encodeManifest(string(s.units.Driver()), snap, savedAt)
		if err == nil {
			err = s.units.Write(ctx, UnitManifest, manifest)
		}
		if err != nil {
			s.metrics.IncWriteFailure(UnitManifest)
			s.log.Warn(s.log.WithField(s.log.WithUnit(ctx, UnitManifest), "error", err.Error()), "manifest write failed")
		}
	}
	s.metrics.ObserveFlush(string(s.units.Driver()), time.Since(start))
	if len(failed) > 0 {
		return &domain.StorageWriteError{Units: failed, Err: joined}
	}
	return nil
}

func unitPayload[T any](unit string, c memory.Collection[T], savedAt time.Time) (string, []byte, error) {
	data, err := encodeUnit(unit, c, savedAt)
	return unit, data, err
}

// RunInTransaction applies fn atomically and flushes when it recorded changes.
// A flush failure is returned as a soft *domain.StorageWriteError; the
// mutation stays applied.
func (s *EntityStore) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	_, res, err := s.apply(ctx, fn)
	return res, err
}

func (s *EntityStore) apply(ctx context.Context, fn func(tx domain.Transaction) error) ([]domain.Change, domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changes, res, err := s.mem.Apply(ctx, fn)
	if err != nil {
		return nil, res, err
	}
	if len(changes) == 0 {
		return changes, res, nil
	}
	return changes, res, s.flushLocked(ctx)
}

// View runs fn against an isolated snapshot.
func (s *EntityStore) View(ctx context.Context, fn func(domain.TransactionView) error) error {
	return s.mem.View(ctx, fn)
}

// Snapshot exports the current state.
func (s *EntityStore) Snapshot() memory.Snapshot { return s.mem.ExportState() }

// Close flushes once more and releases the backend.
func (s *EntityStore) Close(ctx context.Context) error {
	flushErr := s.Flush(ctx)
	closeErr := s.units.Close()
	return errors.Join(flushErr, closeErr)
}
