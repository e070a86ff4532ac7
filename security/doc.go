// Package security validates external input before it reaches a shell command,
// a filesystem path, or an HTTP Authorization header.
//
// Every value that a feature handler interpolates into a command string for the
// cloud CLI, git, or a package manager must pass one of these validators first.
// The validators use allow-lists rather than deny-lists: anything outside the
// enumerated character set is rejected.
//
// # Identifiers
//
// Organization, project, workspace and mesh IDs:
//   - 1 to 100 characters
//   - Letters, digits, hyphen (-) and underscore (_) only
//   - No dots, slashes, whitespace, quotes or shell metacharacters
//
// Project names add path separator and reserved device name checks
// (con, prn, aux, nul, com1-com9, lpt1-lpt9).
//
// # Paths
//
// PathValidator resolves a candidate path (including any ".." segments and
// symlinks in its existing prefix) and accepts it only when it is the projects
// root or lies beneath it.
//
// # Tokens
//
// ValidateAccessToken accepts JWT-shaped bearer tokens between 50 and 5000
// characters drawn from the base64url alphabet plus ".".
//
// # Errors
//
// All validators return *ValidationError. Its Kind is either ErrInvalidInput
// (malformed input, prompt the user again) or ErrSecurityRejection (malicious
// input or misconfigured upstream, abort the operation):
//
//	if err := security.ValidateProjectID(id); err != nil {
//	    if security.IsSecurityRejection(err) {
//	        return fmt.Errorf("refusing to run command: %w", err)
//	    }
//	    return err
//	}
//
// Validation messages never contain secrets and need no further sanitizing.
package security
