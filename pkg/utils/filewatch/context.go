// Package filewatch cancels contexts when watched files change.
package filewatch

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// UntilModifyContext derives from ctx a context that is canceled as
// soon as one of the given files changes: written, created, removed or
// renamed.
//
// # Args
//
// - ctx
//
// - paths: files (or directories) to watch. The first change to any of
// them cancels the derived context.
//
// # Returns
//
// - context.Context: canceled on the first change. context.Cause names
// the changed file and the operation.
//
// - func(): stops watching and cancels the context.
//
// - error: when the watch cannot be established; the context and the
// stop function are nil then.
func UntilModifyContext(ctx context.Context, paths ...string) (context.Context, func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	wctx, cancel := context.WithCancelCause(ctx)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-wctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				cancel(fmt.Errorf("%s changed (%s)", ev.Name, ev.Op))
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				cancel(werr)
			}
		}
	}()

	for _, p := range paths {
		if err := watcher.Add(p); err != nil {
			cancel(err)
			return nil, nil, err
		}
	}
	return wctx, func() { cancel(nil) }, nil
}
