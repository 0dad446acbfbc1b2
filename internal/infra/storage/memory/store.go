package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"foodbike/internal/storage/core"
)

// Store implements core.Store in process memory. Payloads are copied on the
// way in and out.
type Store struct {
	mu         sync.RWMutex
	units      map[string][]byte
	failWrites map[string]error
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{units: make(map[string][]byte), failWrites: make(map[string]error)}
}

func (s *Store) Driver() core.Driver { return core.DriverMemory }

// FailWrites makes subsequent writes of unit return err; a nil err clears it.
func (s *Store) FailWrites(unit string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failWrites, unit)
		return
	}
	s.failWrites[unit] = err
}

func (s *Store) Read(_ context.Context, unit string) ([]byte, error) {
	if err := core.ValidateUnitName(unit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.units[unit]
	if !ok {
		return nil, core.NotFound(unit)
	}
	return append([]byte(nil), data...), nil
}

func (s *Store) Write(_ context.Context, unit string, data []byte) error {
	if err := core.ValidateUnitName(unit); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failWrites[unit]; err != nil {
		return err
	}
	s.units[unit] = append([]byte(nil), data...)
	return nil
}

func (s *Store) Delete(_ context.Context, unit string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.units[unit]
	delete(s.units, unit)
	return ok, nil
}

func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for name := range s.units {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Close() error { return nil }
