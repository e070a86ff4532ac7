// Package cliout provides structured output formatting for CLI commands.
//
// Output is human-readable by default and JSON after SetFormat("json").
// Color is disabled automatically when stdout is not a terminal or NO_COLOR is
// set, and Unicode symbols fall back to ASCII on legacy Windows consoles.
//
//	cliout.Success("project path is valid")
//	cliout.Error("URL rejected: %s", msg)
//
//	if cliout.IsJSON() {
//	    return cliout.PrintJSON(result)
//	}
//
// SetOutput redirects everything to another writer, which the CLI uses to honor
// cobra's OutOrStdout.
package cliout
