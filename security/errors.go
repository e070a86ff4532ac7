// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package security

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates input that fails a validation contract before use.
	// Callers should prompt for corrected input; it is never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSecurityRejection indicates input rejected by an SSRF, path traversal, or
	// injection-charset check. Callers must treat it as fatal for the current operation.
	ErrSecurityRejection = errors.New("security rejection")
)

// ValidationError is returned by every validator in this package and by urlutil.
// Field names the offending input so messages are specific ("project ID is too long").
// Kind is ErrInvalidInput or ErrSecurityRejection and is matched with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
	Kind   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + " " + e.Reason
}

// Unwrap exposes Kind so errors.Is(err, ErrSecurityRejection) works.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// Invalid builds a ValidationError of kind ErrInvalidInput.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...), Kind: ErrInvalidInput}
}

// Rejected builds a ValidationError of kind ErrSecurityRejection.
func Rejected(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...), Kind: ErrSecurityRejection}
}

// IsSecurityRejection reports whether err is (or wraps) a security rejection.
func IsSecurityRejection(err error) bool {
	return errors.Is(err, ErrSecurityRejection)
}

// KindName returns "security_rejection", "invalid_input" or "" for err. It is
// used as a metrics label.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrSecurityRejection):
		return "security_rejection"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return ""
	}
}
