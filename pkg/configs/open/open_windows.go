//go:build windows

// Package open creates files that only the current user can read.
package open

import (
	"os"

	winacl "github.com/hectane/go-acl"
)

// NewSafeFile opens filepath for rewriting, creating it when missing.
//
// The file is readable and writable by the current user only, and any
// previous content is discarded.
//
// Windows cannot attach an ACL at creation, so the file is locked down
// right after it is created.
func NewSafeFile(filepath string) (*os.File, error) {
	f, err := os.OpenFile(filepath, os.O_TRUNC|os.O_CREATE|os.O_RDWR, os.FileMode(0600))
	if err != nil {
		return nil, err
	}
	if err := winacl.Chmod(filepath, os.FileMode(0600)); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
