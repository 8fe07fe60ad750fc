// Package ratelimit bounds the snapshot fetch path to a fixed quota per
// resetting time window. Other external calls are governed by the store's
// per-endpoint call log, not by this limiter.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a fixed-window counter. A window opens on the first acquisition
// after the previous window expires; once the quota is exhausted every call
// fails until the window rolls over.
type Limiter struct {
	mu          sync.Mutex
	window      time.Duration
	quota       int
	windowStart time.Time
	count       int
	denied      int64

	now func() time.Time
}

// New creates a limiter allowing quota acquisitions per window.
func New(window time.Duration, quota int) *Limiter {
	return &Limiter{
		window: window,
		quota:  quota,
		now:    time.Now,
	}
}

// TryAcquire consumes one slot of the current window. It returns true iff the
// window's count, after incrementing, is within the quota.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.window {
		l.windowStart = now
		l.count = 0
	}

	l.count++
	if l.count > l.quota {
		l.denied++
		return false
	}
	return true
}

// Remaining returns how many acquisitions are left in the current window.
// A window that has already expired counts as a full quota.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.windowStart.IsZero() || l.now().Sub(l.windowStart) >= l.window {
		return l.quota
	}
	if l.count >= l.quota {
		return 0
	}
	return l.quota - l.count
}

// Denied returns how many acquisitions have been rejected since start.
func (l *Limiter) Denied() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.denied
}
