package problem

import (
	problem_create "github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/problem/create"
	problem_list "github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/problem/list"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	list, err := problem_list.New()
	if err != nil {
		return nil, err
	}
	create, err := problem_create.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manage Problems, the containers Files are uploaded into.",
		struct{}{},
		flarc.WithSubcommand("list", list),
		flarc.WithSubcommand("create", create),
	)
}
