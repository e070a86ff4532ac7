// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FieldProjectPath labels path validation errors.
const FieldProjectPath = "project path"

// ProjectsDirName is the directory under the user's home that holds generated projects.
const ProjectsDirName = ".demo-builder"

// DefaultProjectsRoot returns ~/.demo-builder/projects.
func DefaultProjectsRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ProjectsDirName, "projects"), nil
}

// PathValidator confines filesystem paths to a fixed root directory.
// The root is set once at construction and is never user supplied.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at root. The root is made absolute
// and symlinks in its existing prefix are resolved so comparisons are canonical.
func NewPathValidator(root string) (*PathValidator, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: projects root cannot be empty", ErrInvalidInput)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot resolve projects root: %w", ErrInvalidInput, err)
	}

	resolved, err := resolveExisting(filepath.Clean(absRoot))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot resolve projects root: %w", ErrInvalidInput, err)
	}

	return &PathValidator{root: resolved}, nil
}

// Root returns the canonical allowed root.
func (v *PathValidator) Root() string {
	return v.root
}

// ValidateProjectPath accepts path only if it resolves to the root or a descendant
// of it, and returns the resolved path. Traversal sequences are resolved before the
// comparison, so "root/project/../../../etc" is rejected even though it starts with root.
func (v *PathValidator) ValidateProjectPath(path string) (string, error) {
	if path == "" {
		return "", Invalid(FieldProjectPath, "must be a non-empty string")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", Invalid(FieldProjectPath, "cannot be resolved: %v", err)
	}

	resolved, err := resolveExisting(filepath.Clean(absPath))
	if err != nil {
		return "", Invalid(FieldProjectPath, "cannot be resolved: %v", err)
	}

	if resolved == v.root || strings.HasPrefix(resolved, v.root+string(filepath.Separator)) {
		return resolved, nil
	}

	return "", Rejected(FieldProjectPath, "is outside demo-builder projects directory")
}

// resolveExisting evaluates symlinks on the longest existing prefix of an absolute,
// clean path and re-appends the non-existent remainder. A project directory usually
// does not exist yet when it is validated, while its parent (or the root itself)
// may sit behind a symlink such as /var -> /private/var on macOS.
func resolveExisting(path string) (string, error) {
	var rest []string
	current := path

	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(rest) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, rest[i])
			}
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Nothing on the path exists; fall back to the lexical form.
			return path, nil
		}
		rest = append(rest, filepath.Base(current))
		current = parent
	}
}
