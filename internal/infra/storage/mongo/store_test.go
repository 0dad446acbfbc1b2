package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"foodbike/internal/storage/core"
)

func TestMongoNewRequiresURI(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected missing uri error")
	}
}

func TestMongoStoreIntegration(t *testing.T) {
	uri := os.Getenv("FOODBIKE_TEST_MONGO_URI")
	if uri == "" {
		t.Skipf("FOODBIKE_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := New(ctx, Config{
		URI:        uri,
		Database:   "foodbike_test",
		Collection: fmt.Sprintf("units_%d", time.Now().UnixNano()),
		Timeout:    5 * time.Second,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() {
		_ = s.collection.Drop(ctx)
		_ = s.Close()
	}()

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
	if err != nil || string(got) != `{"v":2}` {
		t.Fatalf("read: %s %v", got, err)
	}
	if err := s.Write(ctx, "orders.backup-1", []byte(`{}`)); err != nil {
		t.Fatalf("write backup: %v", err)
	}
	names, err := s.List(ctx, "orders")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("unexpected list %v", names)
	}
	if ok, err := s.Delete(ctx, "orders"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
}
