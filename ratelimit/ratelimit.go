// Package ratelimit provides the per-key sliding-window limiter used for
// admin login attempts and the analytics collect endpoint.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter allows up to max hits per key within a sliding window. A cleanup
// goroutine drops idle keys so the map does not grow with every client ever
// seen.
type Limiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
}

// New creates a Limiter allowing max hits per window for each key.
func New(max int, window time.Duration) *Limiter {
	l := &Limiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
	}
	go l.cleanup()
	return l
}

// prune drops hits older than the window for key and returns what remains.
// Callers must hold mu.
func (l *Limiter) prune(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	kept := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.hits[key] = kept
	return kept
}

// Allow reports whether key is under the limit and, when it is, records the
// hit. Use this for endpoints where every request counts against the limit.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.prune(key, now)
	if len(kept) >= l.max {
		return false
	}
	l.hits[key] = append(kept, now)
	return true
}

// Check reports whether key is under the limit without recording a hit.
// Pair it with Record when only failures should count, as with login
// attempts.
func (l *Limiter) Check(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(key, time.Now())) < l.max
}

// Record registers a hit for key.
func (l *Limiter) Record(key string) {
	l.mu.Lock()
	l.hits[key] = append(l.hits[key], time.Now())
	l.mu.Unlock()
}

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(l.window)
	for range ticker.C {
		now := time.Now()
		l.mu.Lock()
		for key := range l.hits {
			if len(l.prune(key, now)) == 0 {
				delete(l.hits, key)
			}
		}
		l.mu.Unlock()
	}
}
