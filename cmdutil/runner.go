// Package cmdutil runs shell commands assembled from validated arguments.
//
// A Runner ties together the guards a feature handler needs before it shells
// out: every argument is validated when it is built, the resource lock is held
// for the duration of the command, the rate limit gate is passed, and the child
// process tree is killed when the context is cancelled.
package cmdutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/jongio/demo-builder-core/lockutil"
	"github.com/jongio/demo-builder-core/logutil"
	"github.com/jongio/demo-builder-core/procutil"
	"github.com/jongio/demo-builder-core/ratelimit"
	"github.com/jongio/demo-builder-core/sanitize"
)

// DefaultTimeout is the default timeout for command execution.
const DefaultTimeout = 30 * time.Minute

var log = logutil.NewLogger("cmdutil")

// OutputLineHandler is a callback for processing output lines in real-time.
type OutputLineHandler func(line string)

// Command describes one shell invocation.
type Command struct {
	// Resource scopes the lock and rate limit, e.g. "adobe-cli". Empty means
	// the command runs unguarded by either.
	Resource string
	Args     []Arg
	Dir      string
	// Shell defaults to GetDefaultShell().
	Shell string
	// Timeout defaults to DefaultTimeout. Negative disables it.
	Timeout time.Duration
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
	// OnLine, if set, receives stdout and stderr line by line while the
	// command runs.
	OnLine OutputLineHandler
}

// Script validates every argument and joins them into the command line for
// shell. The first validation error is returned unchanged.
func (c Command) Script(shell string) (string, error) {
	if len(c.Args) == 0 {
		return "", errors.New("command has no arguments")
	}
	parts := make([]string, 0, len(c.Args))
	for _, a := range c.Args {
		if a.err != nil {
			return "", a.err
		}
		parts = append(parts, a.render(shell))
	}
	return strings.Join(parts, " "), nil
}

// Result is the outcome of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// ExitError reports a command that ran and exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
}

// Runner executes Commands. Any of its collaborators may be nil, in which case
// that guard is skipped.
type Runner struct {
	locker  *lockutil.Locker
	limiter *ratelimit.Limiter
	cleaner *procutil.Cleaner
}

// NewRunner returns a Runner using the given lock table, rate limiter and
// process cleaner. All three are normally shared across the process.
func NewRunner(locker *lockutil.Locker, limiter *ratelimit.Limiter, cleaner *procutil.Cleaner) *Runner {
	if cleaner == nil {
		cleaner = procutil.NewCleaner()
	}
	return &Runner{locker: locker, limiter: limiter, cleaner: cleaner}
}

// Run validates c, waits for its resource lock and rate limit slot, then runs
// it to completion. When ctx is done (or the timeout elapses) while the command
// is running, its process tree is terminated and ctx's error is returned along
// with whatever output was captured.
func (r *Runner) Run(ctx context.Context, c Command) (*Result, error) {
	shell := c.Shell
	if shell == "" {
		shell = GetDefaultShell()
	}

	script, err := c.Script(shell)
	if err != nil {
		return nil, err
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	op := func(ctx context.Context) (*Result, error) {
		if r.limiter != nil && c.Resource != "" {
			if err := r.limiter.Wait(ctx, c.Resource); err != nil {
				return nil, err
			}
		}
		return r.execute(ctx, c, shell, script)
	}

	if r.locker != nil && c.Resource != "" {
		return lockutil.Do(ctx, r.locker, c.Resource, op)
	}
	return op(ctx)
}

func (r *Runner) execute(ctx context.Context, c Command, shell, script string) (*Result, error) {
	name := commandName(script)
	clog := log.WithResource(c.Resource).WithOperation(name)

	cmd := prepareCommand(shell, script, c.Dir, c.Env)

	var stdout, stderr bytes.Buffer
	var outW, errW io.Writer = &stdout, &stderr
	var lineWriters []*lineWriter
	if c.OnLine != nil {
		ow := &lineWriter{output: &stdout, handler: c.OnLine}
		ew := &lineWriter{output: &stderr, handler: c.OnLine}
		lineWriters = append(lineWriters, ow, ew)
		outW, errW = ow, ew
	}
	cmd.Stdout = outW
	cmd.Stderr = errW
	// Grandchildren holding the pipes open must not block Wait forever.
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	if err := cmd.Start(); err != nil {
		clog.Warn("failed to start command", "error", err)
		return nil, fmt.Errorf("failed to start command: %w", err)
	}

	pid := cmd.Process.Pid
	done := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = cmd.Wait()
		close(done)
	}()
	r.cleaner.Track(pid, done)
	defer r.cleaner.Untrack(pid)

	clog.Debug("command started", "pid", pid)

	var ctxErr error
	select {
	case <-done:
	case <-ctx.Done():
		ctxErr = ctx.Err()
		outcome := r.cleaner.KillProcessTree(context.WithoutCancel(ctx), pid, procutil.Graceful)
		clog.Info("command cancelled", "pid", pid, "outcome", outcome.String())
		<-done
	}

	for _, lw := range lineWriters {
		lw.Flush()
	}

	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}

	if ctxErr != nil {
		return res, fmt.Errorf("%s cancelled: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		return res, nil
	case errors.As(waitErr, &exitErr):
		err := &ExitError{Command: name, ExitCode: res.ExitCode}
		clog.Warn("command failed", "exit_code", res.ExitCode, "stderr", sanitize.String(strings.TrimSpace(res.Stderr)))
		return res, err
	default:
		clog.Warn("command wait failed", "error", waitErr)
		return res, fmt.Errorf("%s failed: %w", name, waitErr)
	}
}
