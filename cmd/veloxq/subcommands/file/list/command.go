package list

import (
	"context"
	"encoding/json"
	"log"

	"github.com/veloxq/veloxq-api-types/problems"
	venv "github.com/veloxq/veloxq-go/cmd/veloxq/env"
	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/common"
	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/internal/args"
	"github.com/veloxq/veloxq-go/pkg/files"
	"github.com/veloxq/veloxq-go/pkg/rest"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Problem string       `flag:"problem" alias:"p" metavar:"NAME" help:"Show only Files of the Problem named NAME."`
	Name    string       `flag:"name" alias:"n" metavar:"QUERY" help:"Show only Files whose name contains QUERY."`
	Page    *args.Number `flag:"page" metavar:"N" help:"Page number, starting at 1."`
	Limit   *args.Number `flag:"limit" metavar:"N" help:"Files per page."`
}

// Finder fetches Files from the platform, optionally scoped to one
// Problem.
type Finder func(
	ctx context.Context,
	client rest.Client,
	problemName string,
	param rest.FindFilesParameter,
) ([]problems.File, error)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Display Files that satisfy all specified conditions.",
		Flag{
			Page:  &args.Number{},
			Limit: &args.Number{},
		},
		flarc.Args{},
		common.NewTask(Task(RunFindFiles)),
		flarc.WithDescription(`
Display Files that satisfy all specified conditions, as JSON.

If no condition is specified, all Files are displayed, across Problems.

Example
-------

Listing all Files:

	{{ .Command }}

Listing Files of the Problem "spin-glass":

	{{ .Command }} --problem spin-glass

Finding Files whose name contains "lattice":

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

		param := rest.FindFilesParameter{Name: flags.Name}
		if flags.Page != nil {
			param.Page = flags.Page.Value()
		}
		if flags.Limit != nil {
			param.Limit = flags.Limit.Value()
		}

		found, err := find(ctx, client, flags.Problem, param)
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

func RunFindFiles(
	ctx context.Context,
	client rest.Client,
	problemName string,
	param rest.FindFilesParameter,
) ([]problems.File, error) {
	if problemName == "" {
		return client.FindFiles(ctx, param)
	}

	problem, err := files.FindProblem(ctx, client, problemName)
	if err != nil {
		return nil, err
	}
	found, err := problem.Files(ctx, param)
	if err != nil {
		return nil, err
	}

	details := make([]problems.File, 0, len(found))
	for _, f := range found {
		details = append(details, f.Detail())
	}
	return details, nil
}
