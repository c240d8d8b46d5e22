package filewatch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/veloxq/veloxq-go/pkg/utils/filewatch"
)

func touch(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
}

// expireSoon asserts ctx ends before the test deadline.
func expireSoon(t *testing.T, ctx context.Context) {
	t.Helper()
	patience := 10 * time.Second
	if dl, ok := t.Deadline(); ok {
		patience = time.Until(dl) - time.Second
	}
	select {
	case <-ctx.Done():
	case <-time.After(patience):
		t.Fatal("context has not been cancelled")
	}
}

func TestUntilModifyContext(t *testing.T) {
	t.Run("a write to the watched file cancels the context", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "watched")
		touch(t, file)

		ctx, stop, err := filewatch.UntilModifyContext(context.Background(), file)
		if err != nil {
			t.Fatal(err)
		}
		defer stop()

		if ctx.Err() != nil {
			t.Fatalf("cancelled too early: %v", context.Cause(ctx))
		}

		if err := os.WriteFile(file, []byte("content"), 0644); err != nil {
			t.Fatal(err)
		}
		expireSoon(t, ctx)

		if cause := context.Cause(ctx); cause == nil {
			t.Error("no cause recorded")
		}
	})

	t.Run("a removal in the watched directory cancels the context", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "watched")
		touch(t, file)

		ctx, stop, err := filewatch.UntilModifyContext(context.Background(), dir)
		if err != nil {
			t.Fatal(err)
		}
		defer stop()

		if err := os.Remove(file); err != nil {
			t.Fatal(err)
		}
		expireSoon(t, ctx)
	})

	t.Run("watching a missing path fails upfront", func(t *testing.T) {
		_, _, err := filewatch.UntilModifyContext(
			context.Background(), filepath.Join(t.TempDir(), "no-such-file"),
		)
		if err == nil {
			t.Error("no error unexpectedly")
		}
	})

	t.Run("the stop function cancels the context without a change", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "watched")
		touch(t, file)

		ctx, stop, err := filewatch.UntilModifyContext(context.Background(), file)
		if err != nil {
			t.Fatal(err)
		}
		stop()
		expireSoon(t, ctx)
	})
}
