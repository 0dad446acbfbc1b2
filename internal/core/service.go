package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"foodbike/internal/config"
	"foodbike/internal/logger"
	"foodbike/internal/metrics"
	"foodbike/internal/security"
	"foodbike/internal/storage"
	"foodbike/pkg/domain"
)

// Options configure a Service. Zero values select production defaults.
type Options struct {
	Logger   *logger.Logger
	Metrics  *metrics.StoreMetrics
	Clock    func() time.Time
	Seed     config.SeedConfig
	Password config.PasswordConfig
	IDSource IDSource
}

// Service is the single entry point screens use to read and mutate state.
type Service struct {
	store   *EntityStore
	log     *logger.Logger
	metrics *metrics.StoreMetrics
	hasher  *security.Hasher

	idMu sync.Mutex
	ids  IDSource

	loadReport      LoadReport
	reconcileReport ReconcileReport
}

// Open loads every collection from units and reconciles the seed dataset.
// Unreadable units never fail Open; they start empty.
func Open(ctx context.Context, units storage.Store, opts Options) (*Service, error) {
	if units == nil {
		return nil, errors.New("core: storage backend is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	ids := opts.IDSource
	if ids == nil {
		ids = UUIDSource
	}
	pw := opts.Password
	if pw == (config.PasswordConfig{}) {
		pw = config.DefaultPasswordConfig()
	}

	store := NewEntityStore(units, log, opts.Metrics)
	if opts.Clock != nil {
		store.SetNowFunc(opts.Clock)
	}
	svc := &Service{
		store:   store,
		log:     log,
		metrics: opts.Metrics,
		hasher:  security.NewHasher(pw),
		ids:     ids,
	}
	svc.loadReport = store.Load(ctx)

	report, err := NewReconciler(store, log, opts.Metrics, opts.Seed, svc.hasher).Run(ctx)
	if err != nil && !domain.IsSoft(err) {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err != nil {
		log.Warn(log.WithField(ctx, "error", err.Error()), "reconciled state not fully persisted")
	}
	svc.reconcileReport = report
	return svc, nil
}

// Close flushes all collections and releases the backend.
func (s *Service) Close(ctx context.Context) error {
	return s.store.Close(ctx)
}

// Store exposes the entity store for tooling and tests.
func (s *Service) Store() *EntityStore { return s.store }

func (s *Service) LoadReport() LoadReport { return s.loadReport }

func (s *Service) ReconcileReport() ReconcileReport { return s.reconcileReport }

// Now returns the store clock.
func (s *Service) Now() time.Time { return s.store.Now() }

func (s *Service) newID(prefix string) string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return s.ids(prefix)
}

func (s *Service) actorContext(ctx context.Context, actor Actor) context.Context {
	return s.log.WithActor(ctx, actor.Username, actor.Role.String())
}

func requireRole(actor Actor, operation string, roles ...domain.Role) error {
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return &domain.ForbiddenError{Actor: actor, Operation: operation}
}

// logSoft records a soft storage failure on an otherwise successful mutation.
func (s *Service) logSoft(ctx context.Context, operation string, err error) {
	if err != nil && domain.IsSoft(err) {
		s.log.Warn(s.log.WithFields(ctx, map[string]any{"operation": operation, "error": err.Error()}), "mutation applied but not persisted")
	}
}
