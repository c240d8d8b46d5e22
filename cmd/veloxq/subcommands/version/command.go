package version

import (
	"context"
	"fmt"

	"github.com/veloxq/veloxq-go/pkg/buildtime"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Print the version of veloxq.",
		struct{}{},
		flarc.Args{},
		func(ctx context.Context, c flarc.Commandline[struct{}], _ []any) error {
			fmt.Fprintln(c.Stdout(), buildtime.VersionString())
			return nil
		},
	)
}
