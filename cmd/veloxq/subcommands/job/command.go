package job

import (
	job_list "github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/job/list"
	job_logs "github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/job/logs"
	job_result "github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/job/result"
	job_show "github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/job/show"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	list, err := job_list.New()
	if err != nil {
		return nil, err
	}
	show, err := job_show.New()
	if err != nil {
		return nil, err
	}
	logs, err := job_logs.New()
	if err != nil {
		return nil, err
	}
	result, err := job_result.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manage Jobs, the solver runs submitted to the platform.",
		struct{}{},
		flarc.WithSubcommand("list", list),
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("logs", logs),
		flarc.WithSubcommand("result", result),
	)
}
