// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package logutil provides structured logging on top of slog.
//
// Every error that reaches a log line passes through the sanitize package
// first: error values given as arguments are replaced with their sanitized
// message, and SanitizedError builds the same attribute for direct slog use.
//
// # Basic Usage
//
//	// Initialize logging (typically in main.go)
//	logutil.SetupLogger(debug, structured)
//
//	log := logutil.NewLogger("procutil")
//	log.WithResource("adobe-cli").Warn("kill failed", "pid", pid, "error", err)
//
// # Debug Mode
//
// Debug logging can be enabled in two ways:
//   - Pass debug=true to SetupLogger
//   - Set DEMO_BUILDER_DEBUG=true environment variable
//
// # Structured Logging
//
// When structured=true is passed to SetupLogger, logs are output as JSON:
//
//	{"time":"2026-01-15T10:30:00Z","level":"INFO","msg":"lock acquired","component":"lockutil"}
//
// Otherwise, logs use a human-readable text format:
//
//	time=2026-01-15T10:30:00Z level=INFO msg="lock acquired" component=lockutil
package logutil
