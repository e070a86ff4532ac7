// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package procutil

import (
	"context"
	"errors"
	"math"
	"slices"

	"github.com/shirou/gopsutil/v4/process"
)

// ErrProcessTermination marks an unexpected OS failure while signalling a
// process. Cleanup never returns it; it only appears in logs.
var ErrProcessTermination = errors.New("process termination failed")

// IsProcessRunning checks if a process with the given PID is running.
// Works cross-platform through gopsutil. A zombie (exited but not yet reaped by
// its parent) is reported as not running.
func IsProcessRunning(pid int) bool {
	return isRunning(context.Background(), pid)
}

func isRunning(ctx context.Context, pid int) bool {
	if pid <= 0 || pid > math.MaxInt32 {
		return false
	}

	exists, err := process.PidExistsWithContext(ctx, int32(pid))
	if err != nil || !exists {
		return false
	}

	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return false
	}
	status, err := p.StatusWithContext(ctx)
	if err != nil {
		// Status is not available on every platform; existence is enough.
		return true
	}
	return !slices.Contains(status, process.Zombie)
}

// descendants returns the PIDs of every process transitively spawned by pid,
// parents before children. The walk is best effort: processes that exit
// mid-walk are skipped.
func descendants(ctx context.Context, pid int) []int {
	root, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil
	}

	var out []int
	seen := map[int32]bool{root.Pid: true}
	queue := []*process.Process{root}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		children, err := p.ChildrenWithContext(ctx)
		if err != nil {
			continue
		}
		for _, c := range children {
			if seen[c.Pid] {
				continue
			}
			seen[c.Pid] = true
			out = append(out, int(c.Pid))
			queue = append(queue, c)
		}
	}
	return out
}
