package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// CaptureOutput captures stdout during function execution.
// It redirects os.Stdout to a pipe, executes the function, and returns the captured output.
// The original stdout is always restored, even if the function returns an error.
//
// Example:
//
//	output := testutil.CaptureOutput(t, func() error {
//	    return cmd.Execute()
//	})
func CaptureOutput(t *testing.T, fn func() error) string {
	t.Helper()

	origStdout := os.Stdout

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}

	os.Stdout = w

	// Buffered to avoid a goroutine leak
	outCh := make(chan string, 1)
	go func() {
		var output strings.Builder
		buf := make([]byte, 1024)
		for {
			n, readErr := r.Read(buf)
			if n > 0 {
				output.Write(buf[:n])
			}
			if readErr != nil {
				break
			}
		}
		outCh <- output.String()
	}()

	fnErr := fn()

	if err := w.Close(); err != nil {
		t.Logf("Failed to close pipe writer: %v", err)
	}
	os.Stdout = origStdout

	output := <-outCh

	if fnErr != nil {
		t.Logf("Command error: %v", fnErr)
	}

	return output
}

// ProjectsRoot creates an empty projects root under a temporary directory and
// returns its canonical path (symlinks resolved, so /var and /private/var on
// macOS compare equal). It is removed when the test completes.
func ProjectsRoot(t *testing.T) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), ".demo-builder", "projects")
	if err := os.MkdirAll(root, 0o750); err != nil {
		t.Fatalf("Failed to create projects root: %v", err)
	}

	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatalf("Failed to resolve projects root: %v", err)
	}
	return resolved
}

// AccessToken returns a JWT-shaped token of exactly n characters that passes
// security.ValidateAccessToken when 50 <= n <= 5000.
func AccessToken(n int) string {
	const header = "eyJhbGciOiJSUzI1NiJ9."
	if n <= len(header) {
		return header[:max(n, 0)]
	}
	return header + strings.Repeat("x", n-len(header))
}
