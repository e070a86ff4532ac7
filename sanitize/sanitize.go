// Package sanitize turns arbitrary error text into a string that is safe to log
// or send to telemetry.
//
// Errors from shelled-out processes and HTTP calls routinely carry home
// directory paths, bearer tokens and environment dumps. Every caught error must
// pass through ErrorForLogging before it reaches a logger.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// PathPlaceholder replaces the body of an absolute filesystem path. The
	// leading separator is kept so a reader can tell a path was there.
	PathPlaceholder = "<path>"

	// RedactedPlaceholder replaces secrets and environment variable values.
	RedactedPlaceholder = "<redacted>"

	// minSecretLength is the shortest run treated as a possible secret. Shorter
	// alphanumeric runs (ids, words, status codes) are left alone.
	minSecretLength = 20
)

var (
	// envAssignPattern matches NAME=value, NAME="quoted value" and NAME='quoted value'.
	envAssignPattern = regexp.MustCompile(`\b([A-Z_][A-Z0-9_]*)=("[^"]*"|'[^']*'|\S+)`)

	// windowsPathPattern matches drive-letter paths such as C:\Users\me or D:/work.
	windowsPathPattern = regexp.MustCompile(`(?i)\b[a-z]:([\\/])[^\s'"()\[\]<>,;]*`)

	// uncPathPattern matches \\server\share paths.
	uncPathPattern = regexp.MustCompile(`\\\\[^\s'"()\[\]<>,;]+`)

	// unixPathPattern matches /absolute/paths at the start of the text or after a
	// delimiter. The path body excludes "<" so an existing placeholder never matches.
	// URLs are left intact because "//" follows ":", which is not a delimiter.
	unixPathPattern = regexp.MustCompile(`(^|[\s'"(\[=,])/[^\s'"()\[\]<>,;]+`)

	// secretPattern matches long base64, base64url and JWT-alphabet runs.
	secretPattern = regexp.MustCompile(`[A-Za-z0-9+/_.\-]{20,}`)
)

// ErrorForLogging returns the sanitized message of err, or "" for a nil error.
func ErrorForLogging(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// Value sanitizes an error, a string, or anything printable with %v.
func Value(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case error:
		return ErrorForLogging(val)
	case string:
		return String(val)
	default:
		return String(fmt.Sprint(val))
	}
}

// String sanitizes a message:
//  1. keeps only the first line, dropping stack traces and injected lines
//  2. replaces NAME=value assignments with NAME=<redacted>
//  3. replaces absolute Windows, UNC and Unix paths with a separator plus <path>
//  4. replaces runs of 20 or more token-alphabet characters with <redacted>
//
// The result is a fixed point: String(String(s)) == String(s).
// Null bytes are ordinary characters and do not end the message.
func String(s string) string {
	s = firstLine(s)

	s = envAssignPattern.ReplaceAllString(s, "${1}="+RedactedPlaceholder)
	s = windowsPathPattern.ReplaceAllString(s, "${1}"+PathPlaceholder)
	s = uncPathPattern.ReplaceAllString(s, `\`+PathPlaceholder)
	s = unixPathPattern.ReplaceAllString(s, "${1}/"+PathPlaceholder)

	return redactSecrets(s)
}

// firstLine cuts at the first line break. A bare carriage return counts as a
// break so it cannot be used to overwrite earlier text on a terminal.
func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}

// redactSecrets replaces long token-alphabet runs, except a variable name whose
// value has already been redacted (a long NAME in NAME=<redacted>).
func redactSecrets(s string) string {
	matches := secretPattern.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	prev := 0
	for _, m := range matches {
		if strings.HasPrefix(s[m[1]:], "="+RedactedPlaceholder) {
			continue
		}
		b.WriteString(s[prev:m[0]])
		b.WriteString(RedactedPlaceholder)
		prev = m[1]
	}
	b.WriteString(s[prev:])
	return b.String()
}
