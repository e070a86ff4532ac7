// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package pathutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, executableName(name))
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0700); err != nil {
		t.Fatalf("failed to write executable: %v", err)
	}
	return path
}

func TestFindToolInPath(t *testing.T) {
	dir := t.TempDir()
	want := writeExecutable(t, dir, "demo-tool")
	t.Setenv("PATH", dir)

	if got := FindToolInPath("demo-tool"); got != want {
		t.Errorf("FindToolInPath() = %q, want %q", got, want)
	}
	if got := FindToolInPath("definitely-not-a-real-tool-xyz"); got != "" {
		t.Errorf("FindToolInPath(missing) = %q, want empty", got)
	}
}

func TestLookupTool(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the executable")
	}
	dir := t.TempDir()
	want := writeExecutable(t, dir, "demo-tool")
	t.Setenv("PATH", dir)

	got, err := LookupTool("demo-tool")
	if err != nil {
		t.Fatalf("LookupTool() error = %v", err)
	}
	if got != want {
		t.Errorf("LookupTool() = %q, want %q", got, want)
	}

	got, err = LookupTool(want)
	if err != nil || got != want {
		t.Errorf("LookupTool(absolute) = %q, %v", got, err)
	}
}

func TestLookupToolMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	tests := []struct {
		name    string
		tool    string
		errText string
	}{
		{"empty", "", "empty tool name"},
		{"unknown tool", "definitely-not-a-real-tool-xyz", "Please install definitely-not-a-real-tool-xyz manually"},
		{"known tool", "aio-not-installed-here", "manually"},
		{"missing path", filepath.Join(t.TempDir(), "nope"), "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LookupTool(tt.tool)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrToolNotFound) {
				t.Errorf("error %v does not wrap ErrToolNotFound", err)
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("error %q does not contain %q", err, tt.errText)
			}
		})
	}
}

func TestGetInstallSuggestion(t *testing.T) {
	tests := []struct {
		tool string
		want string
	}{
		{"aio", "@adobe/aio-cli"},
		{"node", "nodejs.org"},
		{"git", "git-scm.com"},
		{"unknown-tool", "Please install unknown-tool manually"},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			if got := GetInstallSuggestion(tt.tool); !strings.Contains(got, tt.want) {
				t.Errorf("GetInstallSuggestion(%q) = %q, want to contain %q", tt.tool, got, tt.want)
			}
		})
	}
}

func TestExecutableName(t *testing.T) {
	got := executableName("aio")
	if runtime.GOOS == "windows" {
		if got != "aio.exe" {
			t.Errorf("executableName() = %q, want aio.exe", got)
		}
		if executableName("aio.EXE") != "aio.EXE" {
			t.Error("existing .exe suffix should be kept")
		}
		return
	}
	if got != "aio" {
		t.Errorf("executableName() = %q, want aio", got)
	}
}
