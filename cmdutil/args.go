package cmdutil

import (
	"strings"

	"github.com/jongio/demo-builder-core/security"
)

// Arg is one piece of a shell command line. Args can only be built through the
// constructors below, each of which validates its input first, so a Command
// never interpolates unchecked text into a shell.
type Arg struct {
	value  string
	quoted bool
	err    error
}

// Literal is trusted text written in source code: a program name, a
// subcommand or a flag. Never pass user or network input to Literal.
func Literal(s string) Arg {
	return Arg{value: s}
}

// ID validates value as a resource identifier (organization, project,
// workspace or mesh ID) labelled field.
func ID(field, value string) Arg {
	if err := security.ValidateResourceID(value, field); err != nil {
		return Arg{err: err}
	}
	return Arg{value: value}
}

// ProjectName validates a user chosen project name.
func ProjectName(value string) Arg {
	if err := security.ValidateProjectNameSecurity(value); err != nil {
		return Arg{err: err}
	}
	return Arg{value: value}
}

// Token validates an access token before it is placed on a command line.
func Token(value string) Arg {
	if err := security.ValidateAccessToken(value); err != nil {
		return Arg{err: err}
	}
	return Arg{value: value}
}

// Path confines value to the validator's root and quotes the resolved path.
func Path(v *security.PathValidator, value string) Arg {
	resolved, err := v.ValidateProjectPath(value)
	if err != nil {
		return Arg{err: err}
	}
	return Arg{value: resolved, quoted: true}
}

// Err returns the validation error, if any.
func (a Arg) Err() error {
	return a.err
}

func (a Arg) render(shell string) string {
	if !a.quoted {
		return a.value
	}
	return quote(shell, a.value)
}

// quote wraps s for the given shell. POSIX shells get single quotes; cmd and
// PowerShell get double quotes. Paths reaching here have already been
// validated, so the escaping only has to cope with spaces and quotes.
func quote(shell, s string) string {
	switch shellKind(shell) {
	case kindPowerShell:
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	case kindCmd:
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	default:
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
}
