//go:build !windows
// +build !windows

// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package procutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/shirou/gopsutil/v4/process"
)

// signalTree sends SIGTERM or SIGKILL to every PID in tree. Processes that have
// already exited are skipped silently.
func signalTree(ctx context.Context, tree []int, sig Signal) error {
	var errs []error
	for _, pid := range tree {
		p, err := process.NewProcessWithContext(ctx, int32(pid))
		if err != nil {
			continue
		}

		if sig == Forceful {
			err = p.KillWithContext(ctx)
		} else {
			err = p.SendSignalWithContext(ctx, syscall.SIGTERM)
		}
		if err != nil && !processGone(err) {
			errs = append(errs, fmt.Errorf("pid %d: %w", pid, err))
		}
	}
	return errors.Join(errs...)
}

func processGone(err error) bool {
	return errors.Is(err, os.ErrProcessDone) ||
		errors.Is(err, syscall.ESRCH) ||
		errors.Is(err, process.ErrorProcessNotRunning)
}
