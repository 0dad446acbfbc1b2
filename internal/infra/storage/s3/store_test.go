package s3

import (
	"context"
	"errors"
	"testing"

	"foodbike/internal/storage/core"
)

func TestS3StoreWriteReadOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests("foodbike/")
	if s.Driver() != core.DriverS3 {
		t.Fatalf("unexpected driver %s", s.Driver())
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

func TestS3StoreMissingUnit(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests("")
	if _, err := s.Read(ctx, "reviews"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	ok, err := s.Delete(ctx, "reviews")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok {
		t.Fatalf("expected delete of missing unit to report false")
	}
}

func TestS3StoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests("tenant/")
	for _, unit := range []string{"accounts", "audit_entries", "audit_entries.backup-1"} {
		if err := s.Write(ctx, unit, []byte("{}")); err != nil {
			t.Fatalf("write %s: %v", unit, err)
		}
	}
	names, err := s.List(ctx, "audit")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "audit_entries" || names[1] != "audit_entries.backup-1" {
		t.Fatalf("unexpected list %v", names)
	}
	ok, err := s.Delete(ctx, "accounts")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if _, err := s.Read(ctx, "accounts"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected deleted unit to be gone, got %v", err)
	}
}

func TestS3StoreRejectsInvalidUnit(t *testing.T) {
	s := NewMockForTests("")
	if err := s.Write(context.Background(), "../escape", []byte("{}")); err == nil {
		t.Fatalf("expected invalid unit name to be rejected")
	}
}

func TestS3NewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}
