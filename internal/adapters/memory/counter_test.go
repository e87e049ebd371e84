package memory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samirrijal/zimroute/internal/adapters/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestCounterStore_RejectsAtLimit(t *testing.T) {
	s := memory.NewCounterStore()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ok, count, _, err := s.Hit(ctx, "k", 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("hit %d: expected admit, got ok=%v err=%v", i, ok, err)
		}
		if count != int64(i) {
			t.Errorf("hit %d: expected count %d, got %d", i, i, count)
		}
	}
	ok, count, ttl, _ := s.Hit(ctx, "k", 3, time.Minute)
	if ok {
		t.Fatal("expected 4th hit to be rejected")
	}
	if count != 3 {
		t.Errorf("rejected hit must not increment, got count %d", count)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("expected remaining ttl within window, got %v", ttl)
	}
}

func TestCounterStore_WindowResets(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := memory.NewCounterStoreWithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _, _, _ = s.Hit(ctx, "k", 2, time.Minute)
	}
	if ok, _, _, _ := s.Hit(ctx, "k", 2, time.Minute); ok {
		t.Fatal("expected rejection inside the window")
	}

	clock.Advance(59 * time.Second)
	if ok, _, _, _ := s.Hit(ctx, "k", 2, time.Minute); ok {
		t.Fatal("window is anchored at first touch and must still be closed at 59s")
	}

	clock.Advance(time.Second)
	ok, count, _, _ := s.Hit(ctx, "k", 2, time.Minute)
	if !ok || count != 1 {
		t.Fatalf("expected fresh window after 60s, got ok=%v count=%d", ok, count)
	}
}

func TestCounterStore_KeysAreIndependent(t *testing.T) {
	s := memory.NewCounterStore()
	ctx := context.Background()
	_, _, _, _ = s.Hit(ctx, "a", 1, time.Minute)
	if ok, _, _, _ := s.Hit(ctx, "b", 1, time.Minute); !ok {
		t.Fatal("expected key b to have its own window")
	}
}

func TestCounterStore_ConcurrentHitsNeverOvercount(t *testing.T) {
	s := memory.NewCounterStore()
	ctx := context.Background()

	const limit, workers = 50, 200
	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _, _, _ := s.Hit(ctx, "shared", limit, time.Minute); ok {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if admitted.Load() != limit {
		t.Errorf("expected exactly %d admissions, got %d", limit, admitted.Load())
	}
}

func TestCounterStore_Sweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := memory.NewCounterStoreWithClock(clock.Now)
	ctx := context.Background()

	_, _, _, _ = s.Hit(ctx, "old", 10, time.Minute)
	clock.Advance(30 * time.Second)
	_, _, _, _ = s.Hit(ctx, "new", 10, time.Minute)
	clock.Advance(31 * time.Second)

	if n := s.Sweep(); n != 1 {
		t.Errorf("expected 1 expired window swept, got %d", n)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 window left, got %d", s.Len())
	}
}

func TestCounterStore_StartSweeperRejectsBadSpec(t *testing.T) {
	s := memory.NewCounterStore()
	if err := s.StartSweeper("not a spec"); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
	if err := s.StartSweeper("@every 1m"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()
}
