package logs

import (
	"context"
	"fmt"
	"log"

	apilogs "github.com/veloxq/veloxq-api-types/logs"
	venv "github.com/veloxq/veloxq-go/cmd/veloxq/env"
	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/common"
	"github.com/veloxq/veloxq-go/pkg/rest"
	"github.com/youta-t/flarc"
)

const ARG_JOB_ID = "JOB_ID"

type Flag struct {
	Category string `flag:"category" alias:"c" metavar:"INFO|NOTICE|WARNING|ERROR|CRITICAL|PROGRESS" help:"Show only entries of this category."`
	Period   string `flag:"period" metavar:"allTime|lastHour|last12Hours|last24Hours|last3Days|lastWeek|lastMonth" help:"Show only entries within this period."`
	Message  string `flag:"message" alias:"m" metavar:"QUERY" help:"Show only entries whose message contains QUERY."`
}

// Fetcher pulls the log entries of one Job from the platform.
type Fetcher func(
	ctx context.Context,
	client rest.Client,
	jobId string,
	query rest.LogQuery,
) ([]apilogs.Row, error)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Display log entries of a Job.",
		Flag{},
		flarc.Args{
			{
				Name: ARG_JOB_ID, Required: true,
				Help: "Identifier of the Job whose logs are shown.",
			},
		},
		common.NewTask(Task(RunGetJobLogs)),
		flarc.WithDescription(`
Display log entries of a Job, one per line, in server-provided order.

Example
-------

All logs of Job "job-1":

	{{ .Command }} job-1

Only solver progress within the last hour:

	{{ .Command }} --category PROGRESS --period lastHour job-1
`),
	)
}

func Task(getLogs Fetcher) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		veloxqEnv venv.VeloxQEnv,
		client rest.Client,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()
		jobId := cl.Args()[ARG_JOB_ID][0]

		query := rest.LogQuery{Message: flags.Message}
		if flags.Category != "" {
			category, err := apilogs.ParseCategory(flags.Category)
			if err != nil {
				return fmt.Errorf("%w: --category: %s", flarc.ErrUsage, err)
			}
			query.Category = category
		}
		if flags.Period != "" {
			period, err := apilogs.ParseTimePeriod(flags.Period)
			if err != nil {
				return fmt.Errorf("%w: --period: %s", flarc.ErrUsage, err)
			}
			query.TimePeriod = period
		}

		rows, err := getLogs(ctx, client, jobId, query)
		if err != nil {
			return err
		}

		for _, r := range rows {
			if _, err := fmt.Fprintln(cl.Stdout(), r.String()); err != nil {
				return err
			}
		}

		return nil
	}
}

func RunGetJobLogs(
	ctx context.Context,
	client rest.Client,
	jobId string,
	query rest.LogQuery,
) ([]apilogs.Row, error) {
	return client.GetJobLogs(ctx, jobId, query)
}
