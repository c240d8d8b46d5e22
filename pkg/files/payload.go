package files

import (
	"bytes"
	"io"
)

// Payload is content ready to be uploaded: its upload name, its size in
// bytes and a way to read it.
//
// Open can be called more than once. Each call starts reading from the
// beginning, so a failed upload can be retried by the caller.
type Payload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// InMemory wraps already-encoded bytes as a Payload.
func InMemory(name string, content []byte) Payload {
	return Payload{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}
