package cmdutil

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Shell type constants for platform-specific shell detection.
const (
	ShellSh         = "sh"
	ShellBash       = "bash"
	ShellPwsh       = "pwsh"
	ShellPowerShell = "powershell"
	ShellCmd        = "cmd"
	ShellZsh        = "zsh"
)

type kind int

const (
	kindPosix kind = iota
	kindPowerShell
	kindCmd
)

func shellKind(shell string) kind {
	s := strings.ToLower(shell)
	switch {
	case strings.Contains(s, "pwsh") || strings.Contains(s, "powershell"):
		return kindPowerShell
	case strings.Contains(s, "cmd"):
		return kindCmd
	default:
		return kindPosix
	}
}

// GetDefaultShell returns the default shell for the current platform.
func GetDefaultShell() string {
	if runtime.GOOS == "windows" {
		if _, err := exec.LookPath(ShellPwsh); err == nil {
			return ShellPwsh
		}
		if _, err := exec.LookPath(ShellPowerShell); err == nil {
			return ShellPowerShell
		}
		return ShellCmd
	}
	if _, err := exec.LookPath(ShellBash); err == nil {
		return ShellBash
	}
	return ShellSh
}

// prepareCommand builds the exec.Cmd that runs script through shell. The
// process is not tied to ctx; cancellation is handled by killing its tree.
func prepareCommand(shell, script, dir string, env []string) *exec.Cmd {
	var cmd *exec.Cmd

	switch shellKind(shell) {
	case kindPowerShell:
		wrapped := fmt.Sprintf("[Console]::OutputEncoding = [System.Text.Encoding]::UTF8; %s", script)
		cmd = exec.Command(shell, "-NoProfile", "-Command", wrapped)
	case kindCmd:
		cmd = exec.Command(shell, "/c", script)
	default:
		cmd = exec.Command(shell, "-c", script)
	}

	cmd.Dir = dir
	cmd.Env = os.Environ()
	if len(env) > 0 {
		cmd.Env = append(cmd.Env, env...)
	}
	setProcessGroup(cmd)
	return cmd
}

// commandName returns the first word of script for log lines, so arguments
// such as tokens never reach the log.
func commandName(script string) string {
	if fields := strings.Fields(script); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
