package errors_test

import (
	"errors"
	"testing"

	cuierr "github.com/veloxq/veloxq-go/cmd/veloxq/errors"
)

func TestCUIError(t *testing.T) {
	t.Run("it prints only the summary as Error", func(t *testing.T) {
		testee := cuierr.New(
			"upload failed",
			cuierr.WithDetail("the server closed the connection"),
			cuierr.WithCause(errors.New("EOF")),
		)

		if testee.Error() != "upload failed" {
			t.Errorf("unexpected Error: %s", testee.Error())
		}
	})

	t.Run("it expands detail and cause under Verbose", func(t *testing.T) {
		testee := cuierr.New(
			"upload failed",
			cuierr.WithDetail("the server closed the connection"),
			cuierr.WithCause(errors.New("EOF")),
		)

		expected := "upload failed\nthe server closed the connection\ncaused by: EOF"
		if testee.Verbose() != expected {
			t.Errorf("unexpected Verbose:\n===actual===\n%s\n===expected===\n%s", testee.Verbose(), expected)
		}
	})

	t.Run("it nests the Verbose rendition of a verbose cause", func(t *testing.T) {
		inner := cuierr.New("no route to server", cuierr.WithDetail("dial tcp: timeout"))
		testee := cuierr.New("upload failed", cuierr.WithCause(inner))

		expected := "upload failed\ncaused by: no route to server\ndial tcp: timeout"
		if testee.Verbose() != expected {
			t.Errorf("unexpected Verbose:\n===actual===\n%s\n===expected===\n%s", testee.Verbose(), expected)
		}
	})

	t.Run("it exposes the cause to errors.Is", func(t *testing.T) {
		root := errors.New("root cause")
		testee := cuierr.New("something broke", cuierr.WithCause(root))

		if !errors.Is(testee, root) {
			t.Error("the cause is not reachable through Unwrap")
		}
	})
}
