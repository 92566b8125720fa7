package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

type window struct {
	count     int
	resetTime time.Time
}

// MemoryRateLimiter is the in-process fixed-window implementation. State does
// not survive restarts; acceptable because the purpose is short-horizon abuse
// prevention, not audit.
type MemoryRateLimiter struct {
	namespace   string
	windowSize  time.Duration
	maxRequests int

	mu      sync.Mutex
	windows map[string]*window

	now func() time.Time
}

func NewMemoryRateLimiter(namespace string, windowSize time.Duration, maxRequests int) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		namespace:   namespace,
		windowSize:  windowSize,
		maxRequests: maxRequests,
		windows:     make(map[string]*window),
		now:         time.Now,
	}
}

func (l *MemoryRateLimiter) key(key string) string {
	return fmt.Sprintf("%s:%s", l.namespace, key)
}

// Allow counts one action for key and reports whether it fits the window.
func (l *MemoryRateLimiter) Allow(key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	k := l.key(key)

	w, ok := l.windows[k]
	if !ok || now.After(w.resetTime) {
		l.windows[k] = &window{count: 1, resetTime: now.Add(l.windowSize)}
		return true, nil
	}

	w.count++
	return w.count <= l.maxRequests, nil
}

func (l *MemoryRateLimiter) Remaining(key string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[l.key(key)]
	if !ok || l.now().After(w.resetTime) {
		return l.maxRequests, nil
	}

	remaining := l.maxRequests - w.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (l *MemoryRateLimiter) RetryAfter(key string) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[l.key(key)]
	if !ok {
		return 0, nil
	}

	now := l.now()
	if now.After(w.resetTime) || w.count < l.maxRequests {
		return 0, nil
	}
	return w.resetTime.Sub(now), nil
}

func (l *MemoryRateLimiter) Reset(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.windows, l.key(key))
	return nil
}

// Sweep evicts expired windows and returns how many were removed.
func (l *MemoryRateLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for k, w := range l.windows {
		if now.After(w.resetTime) {
			delete(l.windows, k)
			removed++
		}
	}
	return removed
}
