package result

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	venv "github.com/veloxq/veloxq-go/cmd/veloxq/env"
	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/common"
	"github.com/veloxq/veloxq-go/pkg/jobs"
	"github.com/veloxq/veloxq-go/pkg/rest"
	kpath "github.com/veloxq/veloxq-go/pkg/utils/path"
	"github.com/youta-t/flarc"
)

const (
	ARG_JOB_ID = "JOB_ID"
	ARG_DEST   = "DEST"
)

type Flag struct {
	Best bool `flag:"best" alias:"b" help:"Display the lowest-energy sample as JSON instead of saving the container."`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Download the result of a completed Job.",
		Flag{},
		flarc.Args{
			{
				Name: ARG_JOB_ID, Required: true,
				Help: "Identifier of the Job whose result is downloaded.",
			},
			{
				Name: ARG_DEST, Required: false,
				Help: `
directory to place the result container in, created when missing.
Pass "-" to write the container to stdout (not applicable with --best).
Defaults to the current directory.
`,
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Download the result container of a completed Job.

The container is saved as "JOB_ID.result". With --best the container is
parsed instead, and only the sample with the lowest energy is displayed
as JSON.

The result is only available once the Job has completed; retry later
when the Job is still pending or running.

Example
-------

Save the result of Job "job-1" into the current directory:

	{{ .Command }} job-1

Display only the best sample:

	{{ .Command }} --best job-1
`),
	)
}

func Task() common.Task[Flag] {
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

		dest := "."
		if args := cl.Args()[ARG_DEST]; 0 < len(args) {
			dest = args[0]
		}
		if flags.Best && dest == "-" {
			return fmt.Errorf(`%w: cannot combine --best with DEST "-"`, flarc.ErrUsage)
		}

		job, err := jobs.Attach(ctx, client, jobId)
		if err != nil {
			return err
		}

		if flags.Best {
			return showBest(ctx, job, cl)
		}

		if dest == "-" {
			return job.DownloadResult(ctx, cl.Stdout())
		}

		dest, err = kpath.Resolve(dest)
		if err != nil {
			return fmt.Errorf("cannot resolve path %s: %w", dest, err)
		}
		dest = filepath.Join(filepath.Clean(dest), job.Id()+".result")

		if err := os.MkdirAll(filepath.Dir(dest), os.FileMode(0777)); err != nil {
			return err
		}
		f, err := os.OpenFile(dest, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(0666))
		if err != nil {
			return err
		}
		defer f.Close()

		bar := counterOnly.New(-1)
		bar.SetWriter(cl.Stderr())
		bar.Set("prefix", fmt.Sprintf("Saving to %s:", tail(dest, 60)))
		bar.Start()
		w := bar.NewProxyWriter(f)
		defer w.Close()

		if err := job.DownloadResult(ctx, w); err != nil {
			return err
		}
		bar.Finish()

		logger.Printf("done: job:%s -> %s", job.Id(), dest)
		return nil
	}
}

// counterOnly shows bytes written without a bar. The container size is
// not known before the download completes.
const counterOnly pb.ProgressBarTemplate = `{{with string . "prefix"}}{{.}} {{end}}{{counters .}}`

func showBest(ctx context.Context, job *jobs.Job, cl flarc.Commandline[Flag]) error {
	spectrum, err := job.Result(ctx)
	if err != nil {
		return err
	}

	best, ok := spectrum.Best()
	if !ok {
		return fmt.Errorf("the result of job %s has no samples", job.Id())
	}

	enc := json.NewEncoder(cl.Stdout())
	enc.SetIndent("", "    ")
	return enc.Encode(struct {
		Index  int     `json:"index"`
		Energy float32 `json:"energy"`
		State  []int8  `json:"state"`
	}{
		Index:  best.Index,
		Energy: best.Energy,
		State:  best.State,
	})
}

// tail shortens s to width bytes, keeping its end visible. Paths are
// more recognizable from the end than from the beginning.
func tail(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return "..." + s[len(s)-width+3:]
}
