package sample

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/veloxq/veloxq-api-types/solvers"
	venv "github.com/veloxq/veloxq-go/cmd/veloxq/env"
	cuierr "github.com/veloxq/veloxq-go/cmd/veloxq/errors"
	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/common"
	"github.com/veloxq/veloxq-go/cmd/veloxq/subcommands/internal/args"
	"github.com/veloxq/veloxq-go/pkg/files"
	"github.com/veloxq/veloxq-go/pkg/jobs"
	"github.com/veloxq/veloxq-go/pkg/rest"
	"github.com/veloxq/veloxq-go/pkg/solver"
	"github.com/veloxq/veloxq-go/pkg/utils"
	"github.com/youta-t/flarc"
	"gopkg.in/yaml.v3"
)

const ARG_INSTANCE = "INSTANCE"

type Flag struct {
	Problem   string         `flag:"problem" alias:"p" metavar:"NAME" help:"Problem to upload the instance into. Default: the Problem in veloxqenv, or the shared \"undefined\" Problem."`
	Name      string         `flag:"name" alias:"n" metavar:"NAME" help:"Name to store the instance as. Default: basename of INSTANCE."`
	Force     bool           `flag:"force" help:"Upload even when a File of the same name exists in the Problem."`
	Backend   string         `flag:"backend" metavar:"NAME|ID" help:"Backend to run on, by name or id. Default: the backend in veloxqenv, or VeloxQH100_1."`
	Param     []string       `flag:"param" alias:"P" metavar:"KEY=VALUE" help:"Solver parameter tweak, applied over the base parameters. Repeatable."`
	ParamFile string         `flag:"param-file" metavar:"PATH" help:"YAML file with solver parameters, replacing the ones in veloxqenv."`
	Timeout   *args.Duration `flag:"timeout" metavar:"DURATION" help:"How long to wait for completion, like \"90s\" or \"1h\". Negative waits without bound. Default: 30m."`
	NoWait    bool           `flag:"no-wait" help:"Submit and display the Job without waiting for completion."`
	Output    string         `flag:"output" alias:"o" metavar:"PATH" help:"Save the raw result container to PATH (\"-\" for stdout) instead of displaying the best sample."`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Solve a problem instance on the VeloxQ platform.",
		Flag{
			Timeout: new(args.Duration),
		},
		flarc.Args{
			{
				Name: ARG_INSTANCE, Required: true,
				Help: `Instance file to be solved. If you set "-", the instance is read from stdin.`,
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Solve a problem instance end to end: upload it as a File, submit a Job,
wait for completion and display the lowest-energy sample as JSON.

Uploads are deduplicated by name within their Problem: when a File of
the same name already exists, its stored bytes are reused. Pass --force
to overwrite them.

Solver parameters are taken from veloxqenv, replaced wholesale by
--param-file, then tweaked key by key with --param.

Example
-------

Solving an instance with the veloxqenv defaults:

	{{ .Command }} ./lattice16.h5

Solving with more repetitions on the second backend:

	{{ .Command }} --param num_rep=8192 --backend VeloxQH100_2 ./lattice16.h5

Submitting without waiting (fetch the result later with "job result"):

	{{ .Command }} --no-wait ./lattice16.h5

Keeping the raw result container:

	{{ .Command }} --output ./lattice16.result ./lattice16.h5
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

		instancePath := cl.Args()[ARG_INSTANCE][0]
		var value any = instancePath
		if instancePath == "-" {
			content, err := io.ReadAll(cl.Stdin())
			if err != nil {
				return err
			}
			value = content
		}

		s := solver.New(client)
		if name := backendName(flags, veloxqEnv); name != "" {
			if b, ok := solver.BackendNamed(name); ok {
				s.Backend = b
			} else {
				s.Backend = solver.Backend{Name: name, Id: name}
			}
		}

		solverParams, err := resolveParams(flags, veloxqEnv)
		if err != nil {
			return err
		}
		s.Params = solverParams

		opts := []solver.SampleOption{}
		if flags.Name != "" {
			opts = append(opts, solver.WithName(flags.Name))
		}
		if flags.Force {
			opts = append(opts, solver.WithForce())
		}
		if problemName := problemName(flags, veloxqEnv); problemName != "" {
			problem, err := files.FindOrCreateProblem(ctx, client, problemName)
			if err != nil {
				return err
			}
			opts = append(opts, solver.WithProblem(problem))
		}

		job, err := s.Submit(ctx, value, opts...)
		if err != nil {
			return err
		}
		logger.Printf("submitted: job:%s", job.Id())

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")

		if flags.NoWait {
			return enc.Encode(job.Detail())
		}

		timeout := waitTimeout(flags)
		logger.Println("waiting for completion...")
		if err := job.WaitForCompletion(ctx, timeout); err != nil {
			return cuierr.New(
				fmt.Sprintf("gave up waiting for job %s", job.Id()),
				cuierr.WithDetail(fmt.Sprintf(
					"the job was not cancelled and may still finish. Fetch it later with `veloxq job result %s`",
					job.Id(),
				)),
				cuierr.WithCause(err),
			)
		}

		if flags.Output != "" {
			return saveContainer(ctx, job, flags.Output, cl)
		}

		spectrum, err := job.Result(ctx)
		if err != nil {
			return cuierr.New(
				fmt.Sprintf("failed to retrieve the result of job %s", job.Id()),
				cuierr.WithCause(err),
			)
		}
		best, ok := spectrum.Best()
		if !ok {
			return fmt.Errorf("the result of job %s has no samples", job.Id())
		}

		return enc.Encode(presentation{
			JobId:   job.Id(),
			Samples: spectrum.Samples(),
			Best: bestSample{
				Index:  best.Index,
				Energy: best.Energy,
				State:  best.State,
			},
		})
	}
}

type presentation struct {
	JobId   string     `json:"jobId"`
	Samples int        `json:"samples"`
	Best    bestSample `json:"best"`
}

type bestSample struct {
	Index  int     `json:"index"`
	Energy float32 `json:"energy"`
	State  []int8  `json:"state"`
}

func backendName(flags Flag, veloxqEnv venv.VeloxQEnv) string {
	if flags.Backend != "" {
		return flags.Backend
	}
	return veloxqEnv.Backend
}

func problemName(flags Flag, veloxqEnv venv.VeloxQEnv) string {
	if flags.Problem != "" {
		return flags.Problem
	}
	return veloxqEnv.Problem
}

func waitTimeout(flags Flag) time.Duration {
	if flags.Timeout != nil && flags.Timeout.Value() != 0 {
		return flags.Timeout.Value()
	}
	return solver.DefaultWait
}

type tweak struct {
	key   string
	value any
}

func parseTweak(s string) (tweak, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return tweak{}, fmt.Errorf("--param should be KEY=VALUE: %s", s)
	}
	return tweak{key: key, value: args.Typed(value)}, nil
}

// resolveParams layers the parameter sources: veloxqenv (or the platform
// defaults), then --param-file wholesale, then --param key by key.
func resolveParams(flags Flag, veloxqEnv venv.VeloxQEnv) (solvers.Parameters, error) {
	base := veloxqEnv.ParametersOrDefault()

	if flags.ParamFile != "" {
		buf, err := os.ReadFile(flags.ParamFile)
		if err != nil {
			return base, err
		}
		loaded := solvers.Parameters{}
		if err := yaml.Unmarshal(buf, &loaded); err != nil {
			return base, fmt.Errorf("parsing %s: %w", flags.ParamFile, err)
		}
		base = loaded
	}

	if len(flags.Param) == 0 {
		return base, nil
	}
	tweaks, err := utils.MapUntilError(flags.Param, parseTweak)
	if err != nil {
		return base, errors.Join(flarc.ErrUsage, err)
	}

	flat := map[string]any{}
	buf, err := json.Marshal(base)
	if err != nil {
		return base, err
	}
	if err := json.Unmarshal(buf, &flat); err != nil {
		return base, err
	}
	for _, tw := range tweaks {
		flat[tw.key] = tw.value
	}
	buf, err = json.Marshal(flat)
	if err != nil {
		return base, err
	}
	tweaked := solvers.Parameters{}
	if err := json.Unmarshal(buf, &tweaked); err != nil {
		return base, err
	}
	return tweaked, nil
}

func saveContainer(ctx context.Context, job *jobs.Job, output string, cl flarc.Commandline[Flag]) error {
	if output == "-" {
		return job.DownloadResult(ctx, cl.Stdout())
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(0666))
	if err != nil {
		return err
	}
	defer f.Close()
	return job.DownloadResult(ctx, f)
}
