//go:build !windows

// Package open creates files that only the current user can read.
package open

import "os"

// NewSafeFile opens filepath for rewriting, creating it when missing.
//
// The file is readable and writable by the current user only, and any
// previous content is discarded.
func NewSafeFile(filepath string) (*os.File, error) {
	return os.OpenFile(filepath, os.O_TRUNC|os.O_CREATE|os.O_RDWR, os.FileMode(0600))
}
