// Package memory holds in-process adapters used when no shared store is configured.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type window struct {
	count   int64
	expires time.Time
}

// CounterStore is a mutex-guarded fixed-window counter map.
type CounterStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
	sweeper *cron.Cron
}

// NewCounterStore creates an empty store using the wall clock.
func NewCounterStore() *CounterStore {
	return NewCounterStoreWithClock(time.Now)
}

// NewCounterStoreWithClock creates a store reading time from now.
func NewCounterStoreWithClock(now func() time.Time) *CounterStore {
	return &CounterStore{windows: make(map[string]*window), now: now}
}

// Hit starts a window for key on first touch, rejects once count reaches
// limit and otherwise increments. The whole check runs under one lock.
func (s *CounterStore) Hit(_ context.Context, key string, limit int64, ttl time.Duration) (bool, int64, time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !now.Before(w.expires) {
		w = &window{expires: now.Add(ttl)}
		s.windows[key] = w
	}
	remaining := w.expires.Sub(now)
	if w.count >= limit {
		return false, w.count, remaining, nil
	}
	w.count++
	return true, w.count, remaining, nil
}

// Len returns the number of tracked windows, expired or not.
func (s *CounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Sweep evicts expired windows and returns how many were removed.
func (s *CounterStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, w := range s.windows {
		if !now.Before(w.expires) {
			delete(s.windows, k)
			removed++
		}
	}
	return removed
}

// StartSweeper schedules Sweep on a cron spec such as "@every 1m".
func (s *CounterStore) StartSweeper(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if n := s.Sweep(); n > 0 {
			slog.Debug("rate windows swept", "removed", n)
		}
	}); err != nil {
		return fmt.Errorf("error scheduling sweep job: %w", err)
	}
	c.Start()
	s.sweeper = c
	return nil
}

// Stop halts the sweeper, if running.
func (s *CounterStore) Stop() {
	if s.sweeper != nil {
		<-s.sweeper.Stop().Done()
	}
}
