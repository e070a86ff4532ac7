// Package procutil provides cross-platform process utilities: liveness checks
// and process tree termination.
//
// It uses github.com/shirou/gopsutil for process detection and tree walking,
// which avoids the stale PID issues of os.FindProcess + Signal(0) on Windows.
// A zombie process counts as exited.
//
// # Process Tree Cleanup
//
// A Cleaner terminates a process and everything it spawned. Graceful
// termination sends SIGTERM to each process in the tree (taskkill /T on
// Windows), waits up to the graceful timeout for the root to exit, and then
// escalates to SIGKILL (taskkill /T /F). An already exited process is success.
// Callers never branch on platform.
//
//	cleaner := procutil.NewCleaner(procutil.WithGracefulTimeout(5 * time.Second))
//
//	done := make(chan struct{})
//	go func() { _ = cmd.Wait(); close(done) }()
//	cleaner.Track(cmd.Process.Pid, done)
//
//	// On cancellation:
//	cleaner.KillProcessTree(ctx, cmd.Process.Pid, procutil.Graceful)
//
//	// On shutdown:
//	cleaner.KillAll(ctx)
//
// KillProcessTree never returns an error. Unexpected OS failures are wrapped in
// ErrProcessTermination and logged through logutil, which sanitizes them.
package procutil
