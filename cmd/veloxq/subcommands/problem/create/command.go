package create

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/veloxq/veloxq-api-types/problems"
	venv "github.com/veloxq/veloxq-go/cmd/veloxq/env"
	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/common"
	"github.com/veloxq/veloxq-go/pkg/rest"
	"github.com/youta-t/flarc"
)

const ARG_NAME = "NAME"

// Creator registers a new Problem on the platform.
type Creator func(
	ctx context.Context,
	client rest.Client,
	name string,
) (problems.Detail, error)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Create a new Problem.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "Name of the Problem to be created.",
			},
		},
		common.NewTask(Task(RunCreateProblem)),
		flarc.WithDescription(`
Create a new Problem and display it as JSON.

A Problem is a container Files are uploaded into. Jobs run against a
File in a Problem.

Example
-------

	{{ .Command }} lattice-experiments
`),
	)
}

func Task(create Creator) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		veloxqEnv venv.VeloxQEnv,
		client rest.Client,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		name := ""
		if ns, ok := cl.Args()[ARG_NAME]; ok && 0 < len(ns) {
			name = ns[0]
		}
		if name == "" {
			return fmt.Errorf("%w: NAME should not be empty", flarc.ErrUsage)
		}

		created, err := create(ctx, client, name)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(created); err != nil {
			return err
		}

		return nil
	}
}

func RunCreateProblem(
	ctx context.Context,
	client rest.Client,
	name string,
) (problems.Detail, error) {
	return client.CreateProblem(ctx, name)
}
