//go:build !windows

package cmdutil

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the child in its own process group so terminal
// signals aimed at the extension host do not reach it directly.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
