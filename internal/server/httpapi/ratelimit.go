package httpapi

import (
	"sync"
	"time"
)

// RateLimiter bounds how often a keyed action may happen within a fixed
// window. Implementations must be safe for concurrent use.
type RateLimiter interface {
	Allow(key string, limit int, window time.Duration) bool
	Close()
}

type noopRateLimiter struct{}

// NewNoopRateLimiter returns a limiter that allows everything.
func NewNoopRateLimiter() RateLimiter { return noopRateLimiter{} }

func (noopRateLimiter) Allow(string, int, time.Duration) bool { return true }
func (noopRateLimiter) Close()                                {}

type memoryWindow struct {
	count int
	reset time.Time
}

type memoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
}

// NewMemoryRateLimiter constructs an in-process fixed-window limiter. It is
// the fallback when no Redis backend is configured.
func NewMemoryRateLimiter() RateLimiter {
	return &memoryRateLimiter{windows: map[string]*memoryWindow{}}
}

func (rl *memoryRateLimiter) Allow(key string, limit int, window time.Duration) bool {
	if limit <= 0 {
		return true
	}
	if window <= 0 {
		window = time.Minute
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[key]
	if !ok || now.After(w.reset) {
		rl.windows[key] = &memoryWindow{count: 1, reset: now.Add(window)}
		return true
	}
	w.count++
	return w.count <= limit
}

func (rl *memoryRateLimiter) Close() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.windows = map[string]*memoryWindow{}
}
