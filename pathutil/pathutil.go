// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package pathutil

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrToolNotFound is wrapped by LookupTool when a tool cannot be located.
var ErrToolNotFound = errors.New("tool not found")

// FindToolInPath searches for a tool executable in the system PATH.
// Returns the full path to the executable if found, empty string otherwise.
func FindToolInPath(toolName string) string {
	path, err := exec.LookPath(executableName(toolName))
	if err != nil {
		return ""
	}
	return path
}

// SearchToolInSystemPath searches common install directories for tools that
// are installed but not on the current PATH, e.g. a global npm bin directory
// missing from a GUI-launched process's environment.
func SearchToolInSystemPath(toolName string) string {
	exeName := executableName(toolName)

	var searchPaths []string
	if runtime.GOOS == "windows" {
		searchPaths = []string{
			`C:\Program Files\nodejs`,
			`C:\Program Files\Git\cmd`,
			filepath.Join(os.Getenv("APPDATA"), "npm"),
			filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming", "npm"),
		}
	} else {
		homeDir, _ := os.UserHomeDir()
		searchPaths = []string{
			"/usr/local/bin",
			"/usr/bin",
			"/bin",
			"/opt/homebrew/bin",
			filepath.Join(homeDir, ".local", "bin"),
			filepath.Join(homeDir, ".npm-global", "bin"),
			filepath.Join(homeDir, ".volta", "bin"),
		}
	}

	for _, dir := range searchPaths {
		fullPath := filepath.Join(dir, exeName)
		if info, err := os.Stat(fullPath); err == nil && !info.IsDir() {
			return fullPath
		}
	}
	return ""
}

// LookupTool resolves toolName from PATH, then from the common install
// directories. The error wraps ErrToolNotFound and carries an install hint.
func LookupTool(toolName string) (string, error) {
	if toolName == "" {
		return "", fmt.Errorf("%w: empty tool name", ErrToolNotFound)
	}
	if strings.ContainsAny(toolName, `/\`) {
		if info, err := os.Stat(toolName); err == nil && !info.IsDir() {
			return toolName, nil
		}
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, filepath.Base(toolName))
	}
	if path := FindToolInPath(toolName); path != "" {
		return path, nil
	}
	if path := SearchToolInSystemPath(toolName); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("%w: %s. %s", ErrToolNotFound, toolName, GetInstallSuggestion(toolName))
}

// GetInstallSuggestion returns a suggestion for how to install a missing tool.
func GetInstallSuggestion(toolName string) string {
	suggestions := map[string]string{
		"aio":  "Install with: npm install -g @adobe/aio-cli",
		"node": "Install from https://nodejs.org/",
		"npm":  "Install Node.js from https://nodejs.org/",
		"npx":  "Install Node.js from https://nodejs.org/",
		"git":  "Install from https://git-scm.com/downloads",
		"gh":   "Install from https://cli.github.com/",
	}

	if suggestion, ok := suggestions[toolName]; ok {
		return suggestion
	}
	return fmt.Sprintf("Please install %s manually", toolName)
}

func executableName(toolName string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(toolName), ".exe") {
		return toolName + ".exe"
	}
	return toolName
}
