package show

import (
	"context"
	"encoding/json"
	"log"

	"github.com/veloxq/veloxq-api-types/jobs"
	venv "github.com/veloxq/veloxq-go/cmd/veloxq/env"
	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/common"
	"github.com/veloxq/veloxq-go/pkg/rest"
	"github.com/youta-t/flarc"
)

const ARG_JOB_ID = "JOB_ID"

// Getter fetches one Job from the platform.
type Getter func(
	ctx context.Context,
	client rest.Client,
	jobId string,
) (jobs.Detail, error)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Display a Job.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_JOB_ID, Required: true,
				Help: "Identifier of the Job to be shown.",
			},
		},
		common.NewTask(Task(RunGetJob)),
		flarc.WithDescription(`
Display a Job as JSON: its status, timeline and cost statistics.

Example
-------

	{{ .Command }} job-1
`),
	)
}

func Task(get Getter) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		veloxqEnv venv.VeloxQEnv,
		client rest.Client,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		jobId := cl.Args()[ARG_JOB_ID][0]

		detail, err := get(ctx, client, jobId)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(detail); err != nil {
			return err
		}

		return nil
	}
}

func RunGetJob(
	ctx context.Context,
	client rest.Client,
	jobId string,
) (jobs.Detail, error) {
	return client.GetJob(ctx, jobId)
}
