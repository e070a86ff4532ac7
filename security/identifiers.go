// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package security

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxIdentifierLength is the longest resource ID or project name accepted.
const MaxIdentifierLength = 100

// Field labels used by the fixed-label identifier validators.
const (
	FieldOrgID       = "organization ID"
	FieldProjectID   = "project ID"
	FieldWorkspaceID = "workspace ID"
	FieldMeshID      = "mesh ID"
	FieldProjectName = "project name"
)

var (
	// identifierPattern is intentionally narrower than DNS or container naming:
	// values are interpolated into shell command strings.
	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	reservedNames = map[string]bool{
		"con": true, "prn": true, "aux": true, "nul": true,
		"com1": true, "com2": true, "com3": true, "com4": true, "com5": true,
		"com6": true, "com7": true, "com8": true, "com9": true,
		"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true, "lpt5": true,
		"lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
	}
)

// ValidateResourceID validates an opaque identifier (organization, project,
// workspace or mesh ID) before it is used in a shell command.
// field is used as the subject of the error message.
func ValidateResourceID(value, field string) error {
	if value == "" {
		return Invalid(field, "must be a non-empty string")
	}

	if utf8.RuneCountInString(value) > MaxIdentifierLength {
		return Invalid(field, "is too long (maximum %d characters)", MaxIdentifierLength)
	}

	if !identifierPattern.MatchString(value) {
		return Rejected(field, "contains illegal characters (only letters, numbers, hyphens, and underscores are allowed)")
	}

	return nil
}

// ValidateOrgID validates an organization ID.
func ValidateOrgID(value string) error {
	return ValidateResourceID(value, FieldOrgID)
}

// ValidateProjectID validates a project ID.
func ValidateProjectID(value string) error {
	return ValidateResourceID(value, FieldProjectID)
}

// ValidateWorkspaceID validates a workspace ID.
func ValidateWorkspaceID(value string) error {
	return ValidateResourceID(value, FieldWorkspaceID)
}

// ValidateMeshID validates a mesh ID.
func ValidateMeshID(value string) error {
	return ValidateResourceID(value, FieldMeshID)
}

// ValidateProjectNameSecurity validates a human-chosen project name. Project names
// become directory names under the projects root, so path separators and reserved
// device names are rejected in addition to the identifier charset.
//
// Checks run from most to least specific: a name containing both "/" and ";"
// reports the path separator error.
func ValidateProjectNameSecurity(value string) error {
	if value == "" {
		return Invalid(FieldProjectName, "must be a non-empty string")
	}

	if utf8.RuneCountInString(value) > MaxIdentifierLength {
		return Invalid(FieldProjectName, "must be less than %d characters", MaxIdentifierLength)
	}

	if strings.ContainsAny(value, `/\`) || strings.Contains(value, "..") {
		return Rejected(FieldProjectName, "cannot contain path separators or parent directory references")
	}

	if !identifierPattern.MatchString(value) {
		return Rejected(FieldProjectName, "can only contain letters, numbers, hyphens, and underscores")
	}

	if reservedNames[strings.ToLower(value)] {
		return Invalid(FieldProjectName, "%q is a reserved system name", value)
	}

	return nil
}
