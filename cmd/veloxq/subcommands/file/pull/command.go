package pull

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	venv "github.com/veloxq/veloxq-go/cmd/veloxq/env"
	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/common"
	"github.com/veloxq/veloxq-go/pkg/files"
	"github.com/veloxq/veloxq-go/pkg/rest"
	kpath "github.com/veloxq/veloxq-go/pkg/utils/path"
	"github.com/youta-t/flarc"
)

const (
	ARG_FILE_ID = "FILE_ID"
	ARG_DEST    = "DEST"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Download a File from the platform to your local filesystem.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_FILE_ID, Required: true,
				Help: "Identifier of the File to be downloaded.",
			},
			{
				Name: ARG_DEST, Required: false,
				Help: `
directory to place the downloaded File in, created when missing.
Pass "-" to write the File to stdout.
Defaults to the current directory.
`,
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Download the stored bytes of a File, as they were uploaded.

The File is saved under its stored name.

Example
-------

Pull File "file-1" into the current directory:

	{{ .Command }} file-1

Pull File "file-1" into "./instances":

	{{ .Command }} file-1 ./instances

Pull File "file-1" to stdout:

	{{ .Command }} file-1 -
`),
	)
}

func Task() common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		veloxqEnv venv.VeloxQEnv,
		client rest.Client,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		fileId := cl.Args()[ARG_FILE_ID][0]

		dest := "."
		if args := cl.Args()[ARG_DEST]; 0 < len(args) {
			dest = args[0]
		}

		detail, err := client.GetFile(ctx, fileId)
		if err != nil {
			return err
		}
		file := files.FromDetail(client, detail)

		if dest == "-" {
			return file.Download(ctx, cl.Stdout())
		}

		dest, err = kpath.Resolve(dest)
		if err != nil {
			return fmt.Errorf("cannot resolve path %s: %w", dest, err)
		}
		dest = filepath.Join(filepath.Clean(dest), file.Name())

		if err := os.MkdirAll(filepath.Dir(dest), os.FileMode(0777)); err != nil {
			return err
		}
		f, err := os.OpenFile(dest, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(0666))
		if err != nil {
			return err
		}
		defer f.Close()

		bar := pb.New64(file.Size())
		bar.Set(pb.Bytes, true)
		bar.SetWriter(cl.Stderr())
		bar.Set("prefix", fmt.Sprintf("Saving to %s:", tail(dest, 60)))
		if err := bar.Err(); err != nil {
			return err
		}

		bar.Start()
		w := bar.NewProxyWriter(f)
		defer w.Close()
		if err := file.Download(ctx, w); err != nil {
			return err
		}
		bar.Finish()

		logger.Printf("done: file:%s -> %s", file.Id(), dest)
		return nil
	}
}

// tail shortens s to width bytes, keeping its end visible. Paths are
// more recognizable from the end than from the beginning.
func tail(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return "..." + s[len(s)-width+3:]
}
