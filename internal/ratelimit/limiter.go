// Package ratelimit provides a per-key suppression window, used to
// throttle repeated spoken feedback so the driver is not nagged with
// the same warning on every utterance.
package ratelimit

import "time"

// Limiter allows at most one event per key within a fixed window.
// A zero or negative window disables suppression entirely.
//
// Limiter is not safe for concurrent use; callers serialize access.
type Limiter struct {
	window time.Duration
	seen   map[string]time.Time
}

// New creates a Limiter with the given suppression window.
func New(window time.Duration) *Limiter {
	return &Limiter{
		window: window,
		seen:   make(map[string]time.Time),
	}
}

// Allow reports whether an event for key may fire at now. A true
// result records the event, starting a new suppression window.
func (l *Limiter) Allow(key string, now time.Time) bool {
	if l.window <= 0 {
		return true
	}
	if last, ok := l.seen[key]; ok && now.Sub(last) < l.window {
		return false
	}
	l.seen[key] = now
	return true
}

// Reset clears all recorded events, ending every active window.
func (l *Limiter) Reset() {
	l.seen = make(map[string]time.Time)
}
