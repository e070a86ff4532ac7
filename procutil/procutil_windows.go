//go:build windows
// +build windows

// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package procutil

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

// signalTree runs taskkill /T against the root of tree, which walks the
// descendants itself. Descendants already collected are killed individually
// when forceful, in case the root exited and orphaned them.
func signalTree(ctx context.Context, tree []int, sig Signal) error {
	if len(tree) == 0 {
		return nil
	}

	targets := tree[:1]
	if sig == Forceful {
		targets = tree
	}

	var errs []error
	for _, pid := range targets {
		if !isRunning(ctx, pid) {
			continue
		}
		args := []string{"/PID", strconv.Itoa(pid), "/T"}
		if sig == Forceful {
			args = append(args, "/F")
		}
		// #nosec G204 -- pid is an integer, not user text
		out, err := exec.CommandContext(ctx, "taskkill", args...).CombinedOutput()
		if err != nil && isRunning(ctx, pid) {
			errs = append(errs, fmt.Errorf("pid %d: %w: %s", pid, err, out))
		}
	}
	return errors.Join(errs...)
}
