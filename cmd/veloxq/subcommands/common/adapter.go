package common

import (
	"context"
	"errors"
	"fmt"
	"log"

	venv "github.com/veloxq/veloxq-go/cmd/veloxq/env"
	cuierr "github.com/veloxq/veloxq-go/cmd/veloxq/errors"
	"github.com/veloxq/veloxq-go/pkg/configs/profiles"
	"github.com/veloxq/veloxq-go/pkg/rest"
	"github.com/youta-t/flarc"
)

type TaskWithFlags[T any] func(
	ctx context.Context,
	logger *log.Logger,
	cf Flags,
	cl flarc.Commandline[T],
	params []any,
) error

// splitFlags pulls the Flags value that the command group
// passes down in the positional params, handing the rest through.
func splitFlags(pos []any) (Flags, []any, bool) {
	var (
		flags Flags
		found bool
	)
	rest := make([]any, 0, len(pos))
	for _, p := range pos {
		if cf, ok := p.(Flags); ok {
			flags = cf
			found = true
			continue
		}
		rest = append(rest, p)
	}
	return flags, rest, found
}

// NewTaskWithFlags adapts task into a flarc.Task, feeding it the
// group-level Flags and a logger prefixed with the command name.
//
// When task fails with a CUIError and --verbose is set, the verbose
// rendition is printed before the error propagates.
func NewTaskWithFlags[T any](task TaskWithFlags[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		cf, params, found := splitFlags(pos)
		if !found {
			return errors.New("programming error: common flags are missing")
		}

		logger := log.New(
			cl.Stderr(), fmt.Sprintf("[%s] ", cl.Fullname()), log.LstdFlags,
		)

		err := task(ctx, logger, cf, cl, params)
		if err != nil && cf.Verbose {
			var ce cuierr.CUIError
			if errors.As(err, &ce) {
				logger.Println(ce.Verbose())
			}
		}
		return err
	}
}

type Task[T any] func(
	ctx context.Context,
	logger *log.Logger,
	veloxqEnv venv.VeloxQEnv,
	client rest.Client,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTask adapts task into a flarc.Task, resolving the veloxqprofile
// into a rest.Client and loading the veloxqenv on the way.
func NewTask[T any](task Task[T]) flarc.Task[T] {
	return NewTaskWithFlags(func(
		ctx context.Context,
		logger *log.Logger,
		cf Flags,
		cl flarc.Commandline[T],
		params []any,
	) error {
		store, err := profiles.LoadProfileStore(cf.ProfileStore)
		switch {
		case errors.Is(err, profiles.ErrProfileStoreNotFound):
			return fmt.Errorf(
				"%w: veloxqprofile store (%s) is not found. Please try `veloxq init` first",
				err, cf.ProfileStore,
			)
		case err != nil:
			return fmt.Errorf(
				"%w: failed to load veloxqprofile store (%s)", err, cf.ProfileStore,
			)
		}

		prof, ok := store[cf.Profile]
		if !ok {
			return fmt.Errorf(
				"no profile named '%s' in the store (%s)",
				cf.Profile, cf.ProfileStore,
			)
		}

		e, err := venv.LoadVeloxQEnv(cf.Env)
		if err != nil {
			return fmt.Errorf("failed to load veloxqenv: %w", err)
		}

		client, err := rest.NewClient(prof)
		if err != nil {
			return cuierr.New(
				fmt.Sprintf("failed to create a veloxq client from profile '%s'", cf.Profile),
				cuierr.WithDetail(fmt.Sprintf(
					"the veloxqprofile ('%s' in %s) can be broken. Remove it and try `veloxq init` again",
					cf.Profile, cf.ProfileStore,
				)),
				cuierr.WithCause(err),
			)
		}
		return task(ctx, logger, *e, client, cl, params)
	})
}
