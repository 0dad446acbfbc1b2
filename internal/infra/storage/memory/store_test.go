package memory

import (
	"context"
	"errors"
	"testing"

	"foodbike/internal/storage/core"
)

func TestStoreRoundTripCopiesPayload(t *testing.T) {
	ctx := context.Background()
	s := New()
	payload := []byte(`{"a":1}`)
	if err := s.Write(ctx, "accounts", payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	payload[0] = 'X'
	got, err := s.Read(ctx, "accounts")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("payload aliased caller buffer: %s", got)
	}
	got[0] = 'Y'
	again, _ := s.Read(ctx, "accounts")
	if string(again) != `{"a":1}` {
		t.Fatalf("payload aliased read buffer: %s", again)
	}
}

func TestStoreFailWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("disk full")
	s.FailWrites("orders", boom)
	if err := s.Write(ctx, "orders", []byte("{}")); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if err := s.Write(ctx, "reviews", []byte("{}")); err != nil {
		t.Fatalf("other units must keep working: %v", err)
	}
	s.FailWrites("orders", nil)
	if err := s.Write(ctx, "orders", []byte("{}")); err != nil {
		t.Fatalf("expected cleared failure, got %v", err)
	}
}

func TestStoreListDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.Read(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	_ = s.Write(ctx, "b", []byte("{}"))
	_ = s.Write(ctx, "a", []byte("{}"))
	names, _ := s.List(ctx, "")
	if len(names) != 2 || names[0] != "a" {
		t.Fatalf("unexpected list %v", names)
	}
	if ok, _ := s.Delete(ctx, "a"); !ok {
		t.Fatalf("expected delete to report existing unit")
	}
	if ok, _ := s.Delete(ctx, "a"); ok {
		t.Fatalf("expected delete to report missing unit")
	}
}
