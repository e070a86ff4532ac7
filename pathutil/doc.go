// Package pathutil locates external tools such as the auth CLI before they are
// run, and suggests how to install the ones that are missing.
//
//	path, err := pathutil.LookupTool("aio")
//	if err != nil {
//	    // err includes an install hint, e.g. "npm install -g @adobe/aio-cli"
//	}
package pathutil
