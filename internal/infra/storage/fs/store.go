package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"foodbike/internal/storage/core"
)

const fileExt = ".json"

// Store implements core.Store on a local directory: one file per unit.
// Writes go to a temp file in the same directory and are renamed into place
// so a reader never observes a half-written unit.
type Store struct {
	root string
}

// New returns a filesystem-backed store rooted at root, creating it if needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = "./data"
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// Root returns the configured directory.
func (s *Store) Root() string { return s.root }

// PathFor returns the file backing unit.
func (s *Store) PathFor(unit string) (string, error) {
	if err := core.ValidateUnitName(unit); err != nil {
		return "", err
	}
	return filepath.Join(s.root, unit+fileExt), nil
}

func (s *Store) Read(ctx context.Context, unit string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.PathFor(unit)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.NotFound(unit)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", unit, err)
	}
	return data, nil
}

func (s *Store) Write(ctx context.Context, unit string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.PathFor(unit)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.root, ".tmp-"+unit+"-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", unit, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", unit, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", unit, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", unit, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", unit, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, unit string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := s.PathFor(unit)
	if err != nil {
		return false, err
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", unit, err)
	}
	return true, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.root, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), fileExt)
		if core.ValidateUnitName(name) != nil || !strings.HasPrefix(name, prefix) {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Close() error { return nil }
