// Package fileutil writes files atomically with restrictive permissions.
//
// AtomicWriteFile writes to a uniquely named temporary file in the target
// directory, syncs it, then renames it over the target. Readers never observe
// a partially written file, and concurrent writers never share a temp name.
//
//	if err := fileutil.EnsureDir(dir); err != nil {
//	    return err
//	}
//	if err := fileutil.AtomicWriteFile(filepath.Join(dir, "config.yaml"), data, fileutil.PrivateFilePermission); err != nil {
//	    return err
//	}
package fileutil
