// Package commandline provides a canned flarc.Commandline for task tests.
package commandline

import (
	"bytes"
	"io"

	"github.com/youta-t/flarc"
)

// MockCommandline stands in for the command line a task receives from
// flarc. Zero fields fall back to harmless values, so tests set only
// what they assert on. Trailing underscores keep the field names clear
// of the interface's method names.
type MockCommandline[T any] struct {
	Fullname_ string

	Stdin_  io.Reader
	Stdout_ io.Writer
	Stderr_ io.Writer

	Flags_ T
	Args_  map[string][]string
}

var _ flarc.Commandline[struct{}] = MockCommandline[struct{}]{}

func (m MockCommandline[T]) Fullname() string {
	if m.Fullname_ == "" {
		return "veloxq"
	}
	return m.Fullname_
}

// Stdin is empty rather than nil when unset.
func (m MockCommandline[T]) Stdin() io.Reader {
	if m.Stdin_ == nil {
		return new(bytes.Reader)
	}
	return m.Stdin_
}

func (m MockCommandline[T]) Stdout() io.Writer {
	if m.Stdout_ == nil {
		return io.Discard
	}
	return m.Stdout_
}

func (m MockCommandline[T]) Stderr() io.Writer {
	if m.Stderr_ == nil {
		return io.Discard
	}
	return m.Stderr_
}

func (m MockCommandline[T]) Flags() T {
	return m.Flags_
}

func (m MockCommandline[T]) Args() map[string][]string {
	return m.Args_
}
