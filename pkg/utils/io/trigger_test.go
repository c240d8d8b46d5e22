package io_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	vio "github.com/veloxq/veloxq-go/pkg/utils/io"
)

func TestTriggerReader(t *testing.T) {
	t.Run("it fires callbacks at the end of the stream", func(t *testing.T) {
		message := "quick brown fox jumps over the lazy dog."
		testee := vio.NewTriggerReader(bytes.NewBufferString(message))

		read := 0
		readAtEnd := -1
		testee.OnEnd(func() { readAtEnd = read })

		content := []byte{}
		for {
			buf := make([]byte, 1)
			n, err := testee.Read(buf)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				t.Fatalf("read failed: %s", err)
			}
			read += n
			content = append(content, buf[:n]...)
		}

		if readAtEnd != len(message) {
			t.Errorf("callback fired after %d bytes, not at the end (%d)", readAtEnd, len(message))
		}
		if string(content) != message {
			t.Errorf("content was not passed through: %q", content)
		}
	})

	t.Run("it fires each callback once even when EOF repeats", func(t *testing.T) {
		testee := vio.NewTriggerReader(bytes.NewBufferString("x"))

		fired := 0
		testee.OnEnd(func() { fired++ })

		if _, err := io.ReadAll(testee); err != nil {
			t.Fatalf("read failed: %s", err)
		}
		buf := make([]byte, 1)
		if _, err := testee.Read(buf); !errors.Is(err, io.EOF) {
			t.Fatalf("unexpected error: %v", err)
		}

		if fired != 1 {
			t.Errorf("callback fired %d times", fired)
		}
	})

	t.Run("it runs callbacks registered after exhaustion immediately", func(t *testing.T) {
		testee := vio.NewTriggerReader(bytes.NewBufferString("x"))

		if _, err := io.ReadAll(testee); err != nil {
			t.Fatalf("read failed: %s", err)
		}

		called := false
		testee.OnEnd(func() { called = true })
		if !called {
			t.Error("callback did not run for the exhausted stream")
		}
	})
}
