// Package retry repeats fallible calls on a schedule.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrRetry, returned by the function under retry, asks for another
// attempt.
var ErrRetry = errors.New("retry")

// Backoff blocks until the next attempt may start. It returns ctx's
// error when ctx ends first; any non-nil error stops the retry loop.
type Backoff func(ctx context.Context) error

// StaticBackoff spaces attempts by a fixed interval.
func StaticBackoff(interval time.Duration) Backoff {
	return func(ctx context.Context) error {
		timer := time.NewTimer(interval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}

// Blocking calls f until it settles, pausing with b before every
// attempt, the first one included.
//
// f settles by returning nil (the value is passed through) or an error
// other than ErrRetry. When b reports that ctx ended, Blocking returns
// the zero T and ctx's error without calling f again.
func Blocking[T any](ctx context.Context, b Backoff, f func() (T, error)) (T, error) {
	for {
		if err := b(ctx); err != nil {
			return *new(T), err
		}

		v, err := f()
		if err == nil || !errors.Is(err, ErrRetry) {
			return v, err
		}
	}
}
