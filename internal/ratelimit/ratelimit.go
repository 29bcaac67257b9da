// Package ratelimit implements an in-memory sliding-window rate limiter
// keyed by client identifier. State lives for the lifetime of the process,
// so the limiter is a deterrent against form abuse, not a hard enforcement
// boundary across replicas.
package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultMaxAttempts is the number of submissions allowed per window.
	DefaultMaxAttempts = 5
	// DefaultWindow is the sliding window length.
	DefaultWindow = 5 * time.Minute
)

// Limiter is a sliding-window request counter. A time source is injected
// so tests can drive the window with a fake clock.
type Limiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the limiter's time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a Limiter allowing limit attempts per identifier within the
// sliding window. Non-positive arguments fall back to the defaults.
func New(limit int, window time.Duration, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}

	l := &Limiter{
		attempts: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	go l.cleanupLoop()

	return l
}

// Allow reports whether the identifier may make another attempt. Timestamps
// older than the window are pruned first. An admitted attempt is recorded;
// a rejected attempt is not, so hammering the endpoint cannot extend the
// lockout.
func (l *Limiter) Allow(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(identifier, now)

	if len(recent) >= l.limit {
		l.attempts[identifier] = recent
		return false
	}

	l.attempts[identifier] = append(recent, now)
	return true
}

// Limit returns the attempts allowed per window, for response headers.
func (l *Limiter) Limit() int {
	return l.limit
}

// Remaining returns how many attempts the identifier has left in the
// current window.
func (l *Limiter) Remaining(identifier string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(identifier, l.now())
	l.attempts[identifier] = recent

	remaining := l.limit - len(recent)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RetryAfter returns the duration until the oldest in-window attempt
// leaves the window, i.e. how long a throttled client must wait. Zero
// means the identifier is not throttled.
func (l *Limiter) RetryAfter(identifier string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(identifier, now)
	l.attempts[identifier] = recent

	if len(recent) < l.limit {
		return 0
	}

	oldest := recent[0]
	for _, t := range recent[1:] {
		if t.Before(oldest) {
			oldest = t
		}
	}

	wait := oldest.Add(l.window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// Stop terminates the background cleanup loop.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}

// prune returns the identifier's attempts still inside the window ending
// at now. Caller must hold l.mu.
func (l *Limiter) prune(identifier string, now time.Time) []time.Time {
	windowStart := now.Add(-l.window)

	var recent []time.Time
	for _, t := range l.attempts[identifier] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}
	return recent
}

// cleanupLoop periodically drops identifiers with no in-window attempts so
// the map does not grow without bound.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			windowStart := l.now().Add(-l.window)
			for id, timestamps := range l.attempts {
				var recent []time.Time
				for _, t := range timestamps {
					if t.After(windowStart) {
						recent = append(recent, t)
					}
				}
				if len(recent) == 0 {
					delete(l.attempts, id)
				} else {
					l.attempts[id] = recent
				}
			}
			l.mu.Unlock()
		}
	}
}
