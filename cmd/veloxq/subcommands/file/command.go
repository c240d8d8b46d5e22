package file

import (
	file_list "github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/file/list"
	file_pull "github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/file/pull"
	file_push "github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/file/push"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	push, err := file_push.New()
	if err != nil {
		return nil, err
	}
	pull, err := file_pull.New()
	if err != nil {
		return nil, err
	}
	list, err := file_list.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manage Files, the uploaded problem instances.",
		struct{}{},
		flarc.WithSubcommand("push", push),
		flarc.WithSubcommand("pull", pull),
		flarc.WithSubcommand("list", list),
	)
}
