// Package testutil provides helpers shared by the package tests: capturing
// stdout, creating a throwaway projects root, and building access tokens of a
// given length.
//
//	func TestProjectPath(t *testing.T) {
//	    root := testutil.ProjectsRoot(t)
//	    v, _ := security.NewPathValidator(root)
//	    ...
//	}
package testutil
