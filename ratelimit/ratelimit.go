// Package ratelimit provides fixed-window attempt counting keyed by an
// arbitrary string, typically an IP address or a lowercased email. Login and
// registration use both keyspaces in parallel so an attacker spreading
// attempts across many emails from one IP is still throttled, and vice versa.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter decides whether another attempt is allowed for a key.
type Limiter interface {
	// Allow records an attempt for key and reports whether it is within
	// limit attempts per window.
	Allow(key string, limit int, window time.Duration) bool
	// Sweep evicts entries whose window started more than retention ago
	// and returns the number evicted.
	Sweep(retention time.Duration) int
}

type entry struct {
	count       int
	windowStart time.Time
}

// InMemoryLimiter is a mutex-guarded map of attempt counters.
type InMemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	nowFunc func() time.Time
}

type InMemoryLimiterOption func(*InMemoryLimiter)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) InMemoryLimiterOption {
	return func(l *InMemoryLimiter) {
		l.nowFunc = now
	}
}

func NewInMemoryLimiter(options ...InMemoryLimiterOption) *InMemoryLimiter {
	l := &InMemoryLimiter{
		entries: make(map[string]*entry),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *InMemoryLimiter) Allow(key string, limit int, window time.Duration) bool {
	now := l.nowFunc()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) >= window {
		l.entries[key] = &entry{count: 1, windowStart: now}
		return true
	}
	if e.count < limit {
		e.count++
		return true
	}
	return false
}

func (l *InMemoryLimiter) Sweep(retention time.Duration) int {
	cutoff := l.nowFunc().Add(-retention)

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for key, e := range l.entries {
		if e.windowStart.Before(cutoff) {
			delete(l.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of live entries.
func (l *InMemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
