package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	pb "github.com/cheggaaa/pb/v3"
	venv "github.com/veloxq/veloxq-go/cmd/veloxq/env"
	cuierr "github.com/veloxq/veloxq-go/cmd/veloxq/errors"
	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/common"
	"github.com/veloxq/veloxq-go/pkg/files"
	"github.com/veloxq/veloxq-go/pkg/rest"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Problem string `flag:"problem" alias:"p" metavar:"NAME" help:"Problem to upload into. Default: the Problem in veloxqenv, or the shared \"undefined\" Problem."`
	Name    string `flag:"name" alias:"n" metavar:"NAME" help:"Name to store the File as. Only with a single SOURCE. Default: basename of SOURCE."`
	Force   bool   `flag:"force" help:"Upload even when a File of the same name exists in the Problem."`
}

const ARG_SOURCE = "SOURCE"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Upload local instance files to a Problem.",
		Flag{},
		flarc.Args{
			{
				Name: ARG_SOURCE, Required: true, Repeatable: true,
				Help: "Instance file to be uploaded.",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Upload local instance files to a Problem, and display each stored File as JSON.

Files are deduplicated by name within their Problem: when a File of the
same name already exists, the upload is skipped and the existing File is
displayed. Pass --force to overwrite the stored bytes.

Example
-------

Uploading an instance into the Problem named in veloxqenv:

	{{ .Command }} ./lattice16.h5

Uploading into the Problem "spin-glass" under the name "trial-1.h5":

	{{ .Command }} --problem spin-glass --name trial-1.h5 ./lattice16.h5

Uploading many instances at once:

	{{ .Command }} ./instances/*.h5
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
		sources := cl.Args()[ARG_SOURCE]

		if flags.Name != "" && 1 < len(sources) {
			return fmt.Errorf(
				"%w: --name cannot be used with more than one SOURCE", flarc.ErrUsage,
			)
		}

		problemName := flags.Problem
		if problemName == "" {
			problemName = veloxqEnv.Problem
		}

		var problem *files.Problem
		var err error
		if problemName == "" {
			problem, err = files.Undefined(ctx, client)
		} else {
			problem, err = files.FindOrCreateProblem(ctx, client, problemName)
		}
		if err != nil {
			return err
		}

		out := json.NewEncoder(cl.Stdout())
		out.SetIndent("", "    ")

		total := len(sources)
		for n, s := range sources {
			stat, err := os.Stat(s)
			if err != nil {
				logger.Printf("%s: %s -- skipped", err, s)
				continue
			}
			if stat.IsDir() {
				logger.Printf("%s is a directory -- skipped", s)
				continue
			}

			name := flags.Name
			if name == "" {
				name = filepath.Base(s)
			}

			if !flags.Force {
				found, err := files.Find(ctx, client, problem, name)
				if err == nil {
					logger.Printf(
						"[[%d/%d]] %s: a File named %s already exists (use --force to overwrite)",
						n+1, total, s, name,
					)
					if err := out.Encode(found.Detail()); err != nil {
						return err
					}
					continue
				}
				if !errors.Is(err, files.ErrFileNotFound) {
					return err
				}
			}

			payload := files.Payload{
				Name: name,
				Size: stat.Size(),
				Open: func() (io.ReadCloser, error) { return os.Open(s) },
			}

			prog, err := files.StartUpload(ctx, client, payload, problem)
			if err != nil {
				return err
			}

			bar := pb.New64(prog.TotalSize())
			bar.Set(pb.Bytes, true)
			bar.SetWriter(cl.Stderr())
			if err := bar.Err(); err != nil {
				return err
			}

			bar.Start()
			logger.Printf("[[%d/%d]] sending... %s\n", n+1, total, s)
			for {
				select {
				case <-time.NewTimer(1 * time.Second).C:
					bar.SetCurrent(prog.TransferredSize())
					continue
				case <-prog.Sent():
					bar.SetCurrent(prog.TransferredSize())
				}
				break
			}
			bar.Finish()
			select {
			case <-time.NewTimer(1 * time.Second).C:
				logger.Println("waiting server...")
			case <-prog.Done():
			}
			<-prog.Done()
			if err := prog.Error(); err != nil {
				return cuierr.New(
					fmt.Sprintf("failed to upload %s", s),
					cuierr.WithCause(err),
				)
			}

			uploaded, ok := prog.Result()
			if !ok {
				return fmt.Errorf("failed to upload %s", s)
			}

			logger.Printf(
				"[[%d/%d]] [OK] done: %s -> file:%s", n+1, total, s, uploaded.Id,
			)
			if err := out.Encode(uploaded); err != nil {
				return err
			}
		}

		return nil
	}
}
