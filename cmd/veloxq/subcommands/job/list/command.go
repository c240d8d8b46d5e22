package list

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/veloxq/veloxq-api-types/jobs"
	venv "github.com/veloxq/veloxq-go/cmd/veloxq/env"
	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/common"
	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/internal/args"
	"github.com/veloxq/veloxq-go/pkg/rest"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Status    string       `flag:"status" alias:"s" metavar:"created|pending|running|completed|failed" help:"Show only Jobs in this status."`
	CreatedAt string       `flag:"created-at" metavar:"today|yesterday|lastWeek|lastMonth|last3Months|lastYear|all" help:"Show only Jobs created within this period."`
	Page      *args.Number `flag:"page" metavar:"N" help:"Page number, starting at 1."`
	Limit     *args.Number `flag:"limit" metavar:"N" help:"Jobs per page."`
}

// Finder fetches Jobs from the platform.
type Finder func(
	ctx context.Context,
	client rest.Client,
	param rest.FindJobsParameter,
) ([]jobs.Detail, error)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Display Jobs that satisfy all specified conditions.",
		Flag{
			Page:  &args.Number{},
			Limit: &args.Number{},
		},
		flarc.Args{},
		common.NewTask(Task(RunFindJobs)),
		flarc.WithDescription(`
Display Jobs that satisfy all specified conditions, as JSON.

If no condition is specified, all Jobs are displayed.

Example
-------

Listing all Jobs:

	{{ .Command }}

Listing running Jobs created today:

	{{ .Command }} --status running --created-at today
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

		param := rest.FindJobsParameter{}
		if flags.Status != "" {
			status, err := jobs.ParseStatus(flags.Status)
			if err != nil {
				return fmt.Errorf("%w: --status: %s", flarc.ErrUsage, err)
			}
			param.Status = status
		}
		if flags.CreatedAt != "" {
			period, err := jobs.ParsePeriodFilter(flags.CreatedAt)
			if err != nil {
				return fmt.Errorf("%w: --created-at: %s", flarc.ErrUsage, err)
			}
			param.CreatedAt = period
		}
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

func RunFindJobs(
	ctx context.Context,
	client rest.Client,
	param rest.FindJobsParameter,
) ([]jobs.Detail, error) {
	return client.FindJobs(ctx, param)
}
