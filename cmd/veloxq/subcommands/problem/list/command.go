package list

import (
	"context"
	"encoding/json"
	"log"

	"github.com/veloxq/veloxq-api-types/problems"
	venv "github.com/veloxq/veloxq-go/cmd/veloxq/env"
	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/common"
	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/internal/args"
	"github.com/veloxq/veloxq-go/pkg/rest"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Name  string       `flag:"name" alias:"n" metavar:"QUERY" help:"Show only Problems whose name contains QUERY."`
	Page  *args.Number `flag:"page" metavar:"N" help:"Page number, starting at 1."`
	Limit *args.Number `flag:"limit" metavar:"N" help:"Problems per page."`
}

// Finder fetches Problems from the platform.
type Finder func(
	ctx context.Context,
	client rest.Client,
	param rest.FindProblemsParameter,
) ([]problems.Detail, error)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Display Problems that satisfy all specified conditions.",
		Flag{
			Page:  &args.Number{},
			Limit: &args.Number{},
		},
		flarc.Args{},
		common.NewTask(Task(RunFindProblems)),
		flarc.WithDescription(`
Display Problems that satisfy all specified conditions, as JSON.

If no condition is specified, all Problems are displayed.

Example
-------

Listing all Problems:

	{{ .Command }}

Finding Problems whose name contains "lattice":

	{{ .Command }} --name lattice
`),
	)
}

func Task(find Finder) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		veloxqEnv venv.VeloxQEnv,
		client rest.Client,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()

		param := rest.FindProblemsParameter{Name: flags.Name}
		if flags.Page != nil {
			param.Page = flags.Page.Value()
		}
		if flags.Limit != nil {
			param.Limit = flags.Limit.Value()
		}

		found, err := find(ctx, client, param)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(found); err != nil {
			return err
		}

		return nil
	}
}

func RunFindProblems(
	ctx context.Context,
	client rest.Client,
	param rest.FindProblemsParameter,
) ([]problems.Detail, error) {
	return client.FindProblems(ctx, param)
}
