package context

import (
	"context"
	"testing"
	"time"
)

// WithTest caps ctx at the test's deadline, pulled in by a second so
// clean-up still has time to run.
func WithTest(ctx context.Context, t *testing.T) (context.Context, func()) {
	deadline, ok := t.Deadline()
	if !ok {
		return ctx, func() {}
	}
	return context.WithDeadline(ctx, deadline.Add(-time.Second))
}
