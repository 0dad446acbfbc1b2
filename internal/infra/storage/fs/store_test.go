package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"foodbike/internal/storage/core"
)

func TestStoreWriteReadOverwrite(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
	if _, err := s.Read(ctx, "orders"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Write(ctx, "orders", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Write(ctx, "orders", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Read(ctx, "orders")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Fatalf("unexpected payload %s", got)
	}
}

func TestStoreLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Write(ctx, "reviews", []byte("{}")); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "reviews.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("unexpected directory contents %v", names)
	}
}

func TestStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, unit := range []string{"orders", "orders.backup-1700000000000", "accounts"} {
		if err := s.Write(ctx, unit, []byte("{}")); err != nil {
			t.Fatalf("write %s: %v", unit, err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write stray: %v", err)
	}
	names, err := s.List(ctx, "orders")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "orders" || names[1] != "orders.backup-1700000000000" {
		t.Fatalf("unexpected list %v", names)
	}
	existed, err := s.Delete(ctx, "accounts")
	if err != nil || !existed {
		t.Fatalf("delete existing: %v %v", existed, err)
	}
	existed, err = s.Delete(ctx, "accounts")
	if err != nil || existed {
		t.Fatalf("delete missing: %v %v", existed, err)
	}
}

func TestStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, unit := range []string{"", "../escape", "/abs", "a/b", "UPPER"} {
		if err := s.Write(ctx, unit, []byte("{}")); err == nil {
			t.Fatalf("expected error for %q", unit)
		}
	}
}
