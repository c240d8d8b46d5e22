package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/common"
	subfile "github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/file"
	subinit "github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/initialize"
	subjob "github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/job"
	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/logger"
	subproblem "github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/problem"
	subsample "github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/sample"
	subver "github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/version"
	"github.com/veloxq/veloxq-go/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	cf := try.To(common.Detect(".")).OrFatal(logger)
	init := try.To(subinit.New()).OrFatal(logger)
	problem := try.To(subproblem.New()).OrFatal(logger)
	file := try.To(subfile.New()).OrFatal(logger)
	job := try.To(subjob.New()).OrFatal(logger)
	sample := try.To(subsample.New()).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	veloxq := try.To(
		flarc.NewCommandGroup(
			"VeloxQ Commandline interface",
			cf,
			flarc.WithSubcommand("init", init),
			flarc.WithSubcommand("problem", problem),
			flarc.WithSubcommand("file", file),
			flarc.WithSubcommand("job", job),
			flarc.WithSubcommand("sample", sample),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, veloxq, flarc.WithHelp(true)))
}
