// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package lockutil serializes operations that touch the same named resource.
//
// A Locker is keyed by an arbitrary string (a CLI config file, "adobe-cli", an
// API endpoint class). Operations for one key run one at a time in the order they
// were submitted; operations for different keys run concurrently.
//
// Create one Locker per process and pass it to the handlers that need it:
//
//	locker := lockutil.NewLocker()
//	defer locker.ClearAll()
//
//	org, err := lockutil.Do(ctx, locker, "adobe-cli", func(ctx context.Context) (string, error) {
//		return selectOrg(ctx, orgID)
//	})
package lockutil

import (
	"context"
	"sync"
	"time"

	"github.com/jongio/demo-builder-core/logutil"
	"github.com/jongio/demo-builder-core/metrics"
)

var log = logutil.NewLogger("lockutil")

// entry is the queue state for one key. tail is closed when the most recently
// submitted operation has released the key.
type entry struct {
	tail    chan struct{}
	waiters int
}

// Locker provides per-key FIFO mutual exclusion. The zero value is not usable;
// call NewLocker.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// NewLocker returns an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*entry)}
}

// Exclusive runs op while holding the lock for key.
//
// If another operation holds or is queued for key, Exclusive waits for all of
// them to finish first. An error returned by op is returned unchanged to this
// caller only; the next queued operation still runs. A panic in op releases the
// lock before it propagates.
//
// If ctx is done before the lock is acquired, Exclusive returns ctx.Err() without
// running op. Its place in the queue is given up without disturbing the order of
// the operations behind it.
func (l *Locker) Exclusive(ctx context.Context, key string, op func(ctx context.Context) error) error {
	_, err := Do(ctx, l, key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Do is the generic form of Exclusive and returns the value produced by op.
func Do[T any](ctx context.Context, l *Locker, key string, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	prev, done, e := l.enqueue(key)
	release := func() {
		close(done)
		l.release(key, e)
	}

	start := time.Now()
	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			// Hand our slot to the next waiter only once the holder ahead of us
			// has finished, so ordering is preserved.
			go func() {
				<-prev
				release()
			}()
			log.Debug("lock wait cancelled", "key", key)
			return zero, ctx.Err()
		}
	}
	metrics.RecordLockWait(key, time.Since(start))

	defer release()
	return op(ctx)
}

// enqueue appends a new tail for key and returns the previous tail (nil if the
// key was idle) along with the channel this caller must close on release.
func (l *Locker) enqueue(key string) (prev <-chan struct{}, done chan struct{}, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[key]
	if !ok {
		e = &entry{}
		l.locks[key] = e
	} else {
		prev = e.tail
	}

	done = make(chan struct{})
	e.tail = done
	e.waiters++
	return prev, done, e
}

func (l *Locker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.waiters--
	// ClearAll may have replaced the table, or a newer entry may own the key.
	if cur, ok := l.locks[key]; ok && cur == e && e.waiters == 0 {
		delete(l.locks, key)
	}
}

// IsLocked reports whether an operation for key is running or queued.
func (l *Locker) IsLocked(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.locks[key]
	return ok
}

// ActiveLockCount returns the number of keys with a running or queued operation.
func (l *Locker) ActiveLockCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// ClearAll drops all queue state immediately. In-flight operations are not
// waited for or interrupted; operations submitted afterwards do not queue behind
// them. Use it for teardown, not graceful drain.
func (l *Locker) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.locks)
	l.locks = make(map[string]*entry)
	if n > 0 {
		log.Debug("cleared locks", "count", n)
	}
}
