// Package solver submits problem instances to the VeloxQ solver and
// returns their spectra.
//
// Solver is the high-level entry point of the SDK. Its Sample method
// runs the whole pipeline: normalize the instance, upload it as a file,
// submit a job, wait for completion and parse the result.
package solver

import (
	"context"
	"time"

	"github.com/veloxq/veloxq-api-types/solvers"

	"github.com/veloxq/veloxq-go/pkg/files"
	"github.com/veloxq/veloxq-go/pkg/instance"
	"github.com/veloxq/veloxq-go/pkg/jobs"
	"github.com/veloxq/veloxq-go/pkg/rest"
	"github.com/veloxq/veloxq-go/pkg/result"
	"github.com/veloxq/veloxq-go/pkg/utils"
)

// VeloxQSolverId is the platform identifier of the VeloxQ solver.
const VeloxQSolverId = "3bce1dfa-e7af-4040-a283-67cff253cf94"

// DefaultWait bounds Sample when no WithTimeout option is given.
const DefaultWait = 30 * time.Minute

// Backend names a compute backend jobs can be scheduled on.
type Backend struct {
	Name string
	Id   string
}

// Backends of the VeloxQ solver known to the platform.
var (
	VeloxQH100_1 = Backend{Name: "VeloxQH100_1", Id: "a87c8e0c-c883-4d6a-8495-6cd55e95ed96"}
	VeloxQH100_2 = Backend{Name: "VeloxQH100_2", Id: "1095cf2d-a3a0-4125-9615-45f2884e1aec"}
)

// DefaultBackend is used when neither the Solver nor a WithBackend
// option selects one.
var DefaultBackend = VeloxQH100_1

// Backends lists the known backends.
func Backends() []Backend {
	return []Backend{VeloxQH100_1, VeloxQH100_2}
}

// BackendNamed returns the known backend of that name.
func BackendNamed(name string) (Backend, bool) {
	return utils.First(Backends(), func(b Backend) bool { return b.Name == name })
}

// Solver submits jobs to the VeloxQ solver.
//
// The zero value is not usable; construct with New. Backend and Params
// are the defaults for Sample, overridable per call with options.
type Solver struct {
	client rest.Client

	SolverId string
	Backend  Backend
	Params   solvers.Parameters

	// PollInterval is handed to each submitted job. Zero keeps
	// jobs.DefaultPollInterval.
	PollInterval time.Duration
}

// New returns a Solver with the platform defaults.
func New(c rest.Client) *Solver {
	return &Solver{
		client:   c,
		SolverId: VeloxQSolverId,
		Backend:  DefaultBackend,
		Params:   solvers.New(),
	}
}

type sampleOption struct {
	name    string
	problem *files.Problem
	force   bool
	backend Backend
	params  solvers.Parameters
	timeout time.Duration
}

// SampleOption adjusts a single Sample call.
type SampleOption func(*sampleOption)

// WithName sets the name the uploaded file gets on the platform.
// Without it, payloads built from raw content are named by their hash.
func WithName(name string) SampleOption {
	return func(o *sampleOption) { o.name = name }
}

// WithProblem files the upload under the given problem instead of the
// shared "undefined" one.
func WithProblem(p *files.Problem) SampleOption {
	return func(o *sampleOption) { o.problem = p }
}

// WithForce uploads even when a file with the same name already exists
// in the problem.
func WithForce() SampleOption {
	return func(o *sampleOption) { o.force = true }
}

// WithBackend overrides the solver's backend for this call.
func WithBackend(b Backend) SampleOption {
	return func(o *sampleOption) { o.backend = b }
}

// WithParameters overrides the solver's parameters for this call.
func WithParameters(p solvers.Parameters) SampleOption {
	return func(o *sampleOption) { o.params = p }
}

// WithTimeout bounds the wait for completion. Negative means no bound
// beyond ctx.
func WithTimeout(d time.Duration) SampleOption {
	return func(o *sampleOption) { o.timeout = d }
}

// Sample solves a problem instance and returns its spectrum.
//
// The instance may be anything pkg/instance recognizes: an uploaded
// *files.File, a local path, raw bytes or a reader in a supported
// format, bias/coupling terms, or an ising.Model. New content is
// uploaded first (reusing an existing file of the same name unless
// WithForce is given), then a job is submitted and polled until it
// completes or the timeout elapses.
//
// # Args
//
// - ctx
//
// - value: the problem instance
//
// - opts: per-call adjustments
//
// # Returns
//
// - *result.Spectrum: energies and states of the completed job
//
// - error: from normalization, upload, submission or polling.
// jobs.ErrWaitTimeout when the job outlives the timeout,
// codec/instance errors when the instance cannot be read.
func (s *Solver) Sample(ctx context.Context, value any, opts ...SampleOption) (*result.Spectrum, error) {
	job, err := s.Submit(ctx, value, opts...)
	if err != nil {
		return nil, err
	}

	o := s.options(opts)
	if err := job.WaitForCompletion(ctx, o.timeout); err != nil {
		return nil, err
	}
	return job.Result(ctx)
}

// Submit uploads an instance and starts a job for it, without waiting.
//
// The returned job is in whatever state the first poll finds; use
// WaitForCompletion or Refresh to follow it.
func (s *Solver) Submit(ctx context.Context, value any, opts ...SampleOption) (*jobs.Job, error) {
	o := s.options(opts)

	norm, err := instance.Normalize(value, o.name)
	if err != nil {
		return nil, err
	}

	file := norm.File
	if file == nil {
		problem := o.problem
		if problem == nil {
			problem, err = files.Undefined(ctx, s.client)
			if err != nil {
				return nil, err
			}
		}
		file, err = files.CreateOrGet(ctx, s.client, norm.Payload, problem, o.force)
		if err != nil {
			return nil, err
		}
	}

	job, err := jobs.Submit(ctx, s.client, jobs.Submission{
		ProblemId:  file.ProblemId(),
		FileId:     file.Id(),
		SolverId:   s.SolverId,
		BackendId:  o.backend.Id,
		Parameters: o.params,
	})
	if err != nil {
		return nil, err
	}
	job.PollInterval = s.PollInterval
	return job, nil
}

func (s *Solver) options(opts []SampleOption) sampleOption {
	o := sampleOption{
		backend: s.Backend,
		params:  s.Params,
		timeout: DefaultWait,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
