//go:build integration

package valkey_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/zimroute/internal/adapters/valkey"
)

func newCache(t *testing.T) *valkey.Cache {
	t.Helper()
	addr := os.Getenv("VALKEY_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	c, err := valkey.New(addr)
	if err != nil {
		t.Skipf("valkey not available: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestCache_SetGetDelete(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	if _, err := c.Get(ctx, key); err != valkey.ErrMiss {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := c.Set(ctx, key, []byte("v"), 10); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, err := c.Get(ctx, key); err != nil || string(v) != "v" {
		t.Fatalf("get: %q %v", v, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestCounterStore_Window(t *testing.T) {
	s := newCache(t).Counters()
	ctx := context.Background()
	key := "rate_limit_test:" + uuid.NewString()

	for i := 1; i <= 3; i++ {
		ok, count, ttl, err := s.Hit(ctx, key, 3, time.Second)
		if err != nil || !ok || count != int64(i) {
			t.Fatalf("hit %d: ok=%v count=%d err=%v", i, ok, count, err)
		}
		if ttl <= 0 || ttl > time.Second {
			t.Errorf("hit %d: unexpected ttl %v", i, ttl)
		}
	}
	if ok, count, _, _ := s.Hit(ctx, key, 3, time.Second); ok || count != 3 {
		t.Fatalf("expected rejection at limit, got ok=%v count=%d", ok, count)
	}

	time.Sleep(1100 * time.Millisecond)
	if ok, count, _, _ := s.Hit(ctx, key, 3, time.Second); !ok || count != 1 {
		t.Fatalf("expected fresh window, got ok=%v count=%d", ok, count)
	}
}
