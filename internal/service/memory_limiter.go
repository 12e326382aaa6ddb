package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	memoryLimiterIdleTTL      = 15 * time.Minute
	memoryLimiterCleanupEvery = 2 * time.Minute
)

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is a per-key token bucket used when no redis is configured.
// A bucket holds limit tokens and refills one every window/limit.
type MemoryLimiter struct {
	mu          sync.Mutex
	entries     map[string]*limiterEntry
	lastCleanup time.Time
	now         func() time.Time
}

var _ CommandLimiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		entries:     make(map[string]*limiterEntry),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (m *MemoryLimiter) CheckLimit(_ context.Context, key string, limit int, window time.Duration) (bool, time.Time) {
	now := m.now()
	if limit <= 0 {
		return false, now.Add(window)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cleanup(now)

	ent, ok := m.entries[key]
	if !ok {
		every := rate.Every(window / time.Duration(limit))
		ent = &limiterEntry{lim: rate.NewLimiter(every, limit)}
		m.entries[key] = ent
	}
	ent.lastSeen = now

	r := ent.lim.ReserveN(now, 1)
	if !r.OK() {
		return false, now.Add(window)
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, now.Add(delay)
	}
	return true, now.Add(window)
}

func (m *MemoryLimiter) cleanup(now time.Time) {
	if now.Sub(m.lastCleanup) < memoryLimiterCleanupEvery {
		return
	}
	m.lastCleanup = now

	cutoff := now.Add(-memoryLimiterIdleTTL)
	for key, ent := range m.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(m.entries, key)
		}
	}
}
