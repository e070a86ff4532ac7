// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package procutil

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jongio/demo-builder-core/logutil"
	"github.com/jongio/demo-builder-core/metrics"
)

const (
	// DefaultGracefulTimeout is how long KillProcessTree waits after a graceful
	// signal before escalating.
	DefaultGracefulTimeout = 5 * time.Second

	defaultPollInterval = 25 * time.Millisecond
)

var log = logutil.NewLogger("procutil")

// Signal selects how a process tree is terminated.
type Signal int

const (
	// Graceful asks the tree to exit (SIGTERM, or taskkill without /F) and
	// escalates to Forceful after the graceful timeout.
	Graceful Signal = iota
	// Forceful kills the tree immediately (SIGKILL, or taskkill /F).
	Forceful
)

func (s Signal) String() string {
	if s == Forceful {
		return "forceful"
	}
	return "graceful"
}

// Outcome reports how KillProcessTree finished.
type Outcome int

const (
	// NotRunning means the process had already exited.
	NotRunning Outcome = iota
	// Exited means the process exited after the graceful signal.
	Exited
	// Forced means a forceful kill was sent.
	Forced
)

func (o Outcome) String() string {
	switch o {
	case NotRunning:
		return "not_running"
	case Exited:
		return "exited"
	default:
		return "forced"
	}
}

// CleanerOption configures a Cleaner.
type CleanerOption func(*Cleaner)

// WithGracefulTimeout sets how long to wait before escalating to a forceful kill.
func WithGracefulTimeout(d time.Duration) CleanerOption {
	return func(c *Cleaner) {
		if d > 0 {
			c.gracefulTimeout = d
		}
	}
}

// WithPollInterval sets how often liveness is polled while waiting for exit.
func WithPollInterval(d time.Duration) CleanerOption {
	return func(c *Cleaner) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// Cleaner terminates process trees and keeps the set of child processes
// started by the extension so they can all be stopped on shutdown.
//
// Create one at activation and call KillAll at deactivation.
type Cleaner struct {
	gracefulTimeout time.Duration
	pollInterval    time.Duration

	mu      sync.Mutex
	tracked map[int]<-chan struct{}
}

// NewCleaner returns a Cleaner with a 5 second graceful timeout unless
// overridden.
func NewCleaner(opts ...CleanerOption) *Cleaner {
	c := &Cleaner{
		gracefulTimeout: DefaultGracefulTimeout,
		pollInterval:    defaultPollInterval,
		tracked:         make(map[int]<-chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GracefulTimeout returns the configured graceful timeout.
func (c *Cleaner) GracefulTimeout() time.Duration {
	return c.gracefulTimeout
}

// Track registers pid as a child process to stop on KillAll. exited, if not
// nil, must be closed when the process has exited (typically after
// exec.Cmd.Wait returns); KillProcessTree then observes exit without polling.
func (c *Cleaner) Track(pid int, exited <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracked[pid] = exited
}

// Untrack removes pid from the tracked set.
func (c *Cleaner) Untrack(pid int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tracked, pid)
}

// Tracked returns the tracked PIDs in ascending order.
func (c *Cleaner) Tracked() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	pids := make([]int, 0, len(c.tracked))
	for pid := range c.tracked {
		pids = append(pids, pid)
	}
	slices.Sort(pids)
	return pids
}

func (c *Cleaner) exitedChan(pid int) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracked[pid]
}

// KillProcessTree terminates pid and every process it spawned.
//
// If pid is not running it returns NotRunning at once. A Graceful signal is sent
// to the whole tree, then KillProcessTree waits up to the graceful timeout and
// returns as soon as the process exits. If it is still running when the timeout
// elapses, when ctx is done, or when the graceful signal could not be delivered,
// the tree is killed forcefully. A Forceful signal skips the wait entirely.
//
// KillProcessTree never fails. OS errors are logged and the cleanup is treated
// as complete. pid is removed from the tracked set.
func (c *Cleaner) KillProcessTree(ctx context.Context, pid int, sig Signal) Outcome {
	outcome := c.killTree(ctx, pid, sig)
	c.Untrack(pid)
	metrics.RecordProcessKill(outcome.String())
	log.Debug("process tree terminated", "pid", pid, "signal", sig.String(), "outcome", outcome.String())
	return outcome
}

func (c *Cleaner) killTree(ctx context.Context, pid int, sig Signal) Outcome {
	// Use a context that outlives the caller's so the forceful phase can still
	// run after ctx is cancelled.
	opCtx := context.WithoutCancel(ctx)

	if !isRunning(opCtx, pid) {
		return NotRunning
	}

	tree := append([]int{pid}, descendants(opCtx, pid)...)

	if sig == Graceful {
		if err := signalTree(opCtx, tree, Graceful); err != nil {
			c.logFailure(pid, Graceful, err)
		} else if c.waitForExit(ctx, pid) {
			return Exited
		}
		// Pick up anything spawned while we waited.
		tree = mergePIDs(tree, descendants(opCtx, pid))
	}

	if err := signalTree(opCtx, tree, Forceful); err != nil {
		c.logFailure(pid, Forceful, err)
	}
	return Forced
}

// waitForExit returns true once pid has exited, or false when the graceful
// timeout elapses or ctx is done first.
func (c *Cleaner) waitForExit(ctx context.Context, pid int) bool {
	exited := c.exitedChan(pid)
	probeCtx := context.WithoutCancel(ctx)

	timer := time.NewTimer(c.gracefulTimeout)
	defer timer.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		if !isRunning(probeCtx, pid) {
			return true
		}
		select {
		case <-exited:
			return true
		case <-ticker.C:
		case <-timer.C:
			return !isRunning(probeCtx, pid)
		case <-ctx.Done():
			return false
		}
	}
}

func (c *Cleaner) logFailure(pid int, sig Signal, err error) {
	log.Warn("failed to signal process tree",
		"pid", pid,
		"signal", sig.String(),
		"error", fmt.Errorf("%w: %w", ErrProcessTermination, err))
}

// KillAll terminates every tracked process tree concurrently and waits for all
// of them to finish.
func (c *Cleaner) KillAll(ctx context.Context) {
	pids := c.Tracked()
	if len(pids) == 0 {
		return
	}

	log.Info("stopping tracked processes", "count", len(pids))

	var wg sync.WaitGroup
	for _, pid := range pids {
		wg.Go(func() {
			c.KillProcessTree(ctx, pid, Graceful)
		})
	}
	wg.Wait()
}

func mergePIDs(a, b []int) []int {
	for _, pid := range b {
		if !slices.Contains(a, pid) {
			a = append(a, pid)
		}
	}
	return a
}
