// Package path resolves user-facing path strings.
package path

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolve makes pathstring absolute, expanding a leading "~" to the
// user's home directory.
func Resolve(pathstring string) (string, error) {
	if pathstring == "~" || strings.HasPrefix(pathstring, "~"+string(filepath.Separator)) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		pathstring = filepath.Join(home, pathstring[1:])
	}
	return filepath.Abs(pathstring)
}
