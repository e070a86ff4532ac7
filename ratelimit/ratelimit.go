// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jongio/demo-builder-core/logutil"
	"github.com/jongio/demo-builder-core/metrics"
)

const (
	// DefaultLimit is the number of operations admitted per key per window.
	DefaultLimit = 10

	// DefaultWindow is the length of the trailing window.
	DefaultWindow = time.Second
)

var log = logutil.NewLogger("ratelimit")

// Clock is the time source used by a Limiter. Tests substitute a fake clock to
// simulate the passage of time.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return func(l *Limiter) { l.clock = c }
}

// WithWindow overrides the window length.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// Limiter is a per-key sliding-window rate limiter. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clock   Clock
	windows map[string][]time.Time
}

// New returns a Limiter admitting limit operations per key per window. A limit
// of zero is legal, but Wait on such a limiter only returns when ctx is done.
// Negative limits are treated as zero.
func New(limit int, opts ...Option) *Limiter {
	if limit < 0 {
		limit = 0
	}
	l := &Limiter{
		limit:   limit,
		window:  DefaultWindow,
		clock:   realClock{},
		windows: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the configured number of operations per window.
func (l *Limiter) Limit() int {
	return l.limit
}

// Wait blocks until key has a free slot in the trailing window, then records the
// operation and returns nil. Keys are independent. If ctx is done first, Wait
// returns ctx.Err() and records nothing.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	var waited time.Duration
	for {
		delay, ok := l.tryAdmit(key)
		if ok {
			if waited > 0 {
				metrics.RecordRateLimitWait(key, waited)
			}
			return nil
		}

		if delay < 0 {
			log.Debug("rate limit is zero, waiting for cancellation", "key", key)
			<-ctx.Done()
			return ctx.Err()
		}

		log.Debug("rate limit reached, waiting", "key", key, "delay", delay)
		select {
		case <-l.clock.After(delay):
			waited += delay
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Allow records an operation for key and returns true if the window has a free
// slot. It never blocks.
func (l *Limiter) Allow(key string) bool {
	_, ok := l.tryAdmit(key)
	return ok
}

// tryAdmit admits the call if the window has room. Otherwise it returns the time
// until the oldest entry ages out, or -1 when no slot can ever open.
func (l *Limiter) tryAdmit(key string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	stamps := l.prune(key, now)
	if len(stamps) < l.limit {
		l.windows[key] = append(stamps, now)
		return 0, true
	}
	if l.limit == 0 {
		return -1, false
	}
	return stamps[0].Add(l.window).Sub(now), false
}

// prune drops timestamps that have left the window. Caller holds l.mu.
func (l *Limiter) prune(key string, now time.Time) []time.Time {
	stamps := l.windows[key]
	i := 0
	for i < len(stamps) && now.Sub(stamps[i]) >= l.window {
		i++
	}
	stamps = stamps[i:]
	if len(stamps) == 0 {
		delete(l.windows, key)
		return nil
	}
	l.windows[key] = stamps
	return stamps
}

// Count returns the number of operations for key still inside the window.
func (l *Limiter) Count(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(key, l.clock.Now()))
}

// Reset forgets all recorded operations for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// ResetAll forgets all recorded operations for every key.
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows = make(map[string][]time.Time)
}
