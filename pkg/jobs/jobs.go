// Package jobs drives solver runs on the platform.
//
// A Job is created by Submit and moves created -> pending -> running
// until it ends completed or failed. All transitions are observed by
// polling; the client never assigns a status on its own, and once a
// terminal status has been seen no further network refresh happens.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	apijobs "github.com/veloxq/veloxq-api-types/jobs"
	"github.com/veloxq/veloxq-api-types/logs"
	"github.com/veloxq/veloxq-api-types/solvers"
	"github.com/veloxq/veloxq-go/pkg/rest"
	"github.com/veloxq/veloxq-go/pkg/result"
	"github.com/veloxq/veloxq-go/pkg/utils/retry"
)

var (
	ErrWaitTimeout    = errors.New("timeout while waiting for job completion")
	ErrResultNotReady = errors.New("job result is not ready")
)

// DefaultPollInterval is the pause between status polls while waiting.
var DefaultPollInterval = 2 * time.Second

// Submission selects what to run: an uploaded file, a solver, a backend
// and the solver parameters.
type Submission struct {
	ProblemId  string
	FileId     string
	SolverId   string
	BackendId  string
	Parameters solvers.Parameters
}

// Job is a solver run on the platform.
//
// A Job caches its last polled detail and, once downloaded, its result.
// Use one Job from one goroutine; independent Jobs are safe to poll
// concurrently.
type Job struct {
	client rest.Client

	// PollInterval overrides DefaultPollInterval when positive.
	PollInterval time.Duration

	detail   apijobs.Detail
	spectrum *result.Spectrum
}

// Submit starts a job.
//
// Parameters are snapshotted here: changing the Submission afterwards
// does not affect the running job.
//
// # Returns
//
// - *Job: the created job. Its status starts at whatever the server
// reports, typically created or pending.
//
// - error
func Submit(ctx context.Context, c rest.Client, sub Submission) (*Job, error) {
	params, err := json.Marshal(sub.Parameters)
	if err != nil {
		return nil, fmt.Errorf("encoding solver parameters: %w", err)
	}

	created, err := c.SubmitJob(ctx, apijobs.SubmitRequest{
		ProblemId: sub.ProblemId,
		Solvers: []apijobs.SolverSpec{
			{
				SolverId:   sub.SolverId,
				BackendId:  sub.BackendId,
				Files:      []apijobs.FileRef{{FileId: sub.FileId}},
				Parameters: params,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("submitting job for file %s: %w", sub.FileId, err)
	}
	return &Job{client: c, detail: created}, nil
}

// Attach fetches an existing job by id.
func Attach(ctx context.Context, c rest.Client, jobId string) (*Job, error) {
	detail, err := c.GetJob(ctx, jobId)
	if err != nil {
		return nil, err
	}
	return &Job{client: c, detail: detail}, nil
}

// Find lists jobs matching the filter.
func Find(ctx context.Context, c rest.Client, param rest.FindJobsParameter) ([]*Job, error) {
	details, err := c.FindJobs(ctx, param)
	if err != nil {
		return nil, err
	}

	found := make([]*Job, 0, len(details))
	for _, d := range details {
		found = append(found, &Job{client: c, detail: d})
	}
	return found, nil
}

func (j *Job) Id() string {
	return j.detail.Id
}

// Status returns the status as of the last poll.
func (j *Job) Status() apijobs.Status {
	return j.detail.Status
}

func (j *Job) Detail() apijobs.Detail {
	return j.detail
}

func (j *Job) Statistics() apijobs.Statistics {
	return j.detail.Statistics
}

func (j *Job) Timeline() []apijobs.TimelineValue {
	return j.detail.Timeline
}

// Refresh polls the job status.
//
// Terminal statuses are sticky: once completed or failed has been
// observed, Refresh returns without touching the network.
func (j *Job) Refresh(ctx context.Context) error {
	if j.detail.Status.Terminal() {
		return nil
	}

	detail, err := j.client.GetJob(ctx, j.detail.Id)
	if err != nil {
		return fmt.Errorf("polling job %s: %w", j.detail.Id, err)
	}
	j.detail = detail
	return nil
}

// WaitForCompletion polls until the job reaches a terminal status.
//
// A job ending in failed is a normal return: failure is read from
// Status and Statistics, not from this error. Only running out of time
// is an error here.
//
// # Args
//
// - ctx: waiting stops with ctx.Err() when ctx is done first.
//
// - timeout: how long to keep polling. 0 gives up right after the
// first poll. Negative waits with no deadline of its own, until ctx
// ends the wait.
//
// # Returns
//
// - error: ErrWaitTimeout (wrapping context.DeadlineExceeded) when
// timeout elapsed while the job was still running. The job itself is
// left untouched and keeps running remotely.
func (j *Job) WaitForCompletion(ctx context.Context, timeout time.Duration) error {
	if err := j.Refresh(ctx); err != nil {
		return err
	}
	if j.detail.Status.Terminal() {
		return nil
	}

	wctx := ctx
	if 0 <= timeout {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	interval := j.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	_, err := retry.Blocking(wctx, retry.StaticBackoff(interval), func() (struct{}, error) {
		if err := j.Refresh(wctx); err != nil {
			return struct{}{}, err
		}
		if j.detail.Status.Terminal() {
			return struct{}{}, nil
		}
		return struct{}{}, retry.ErrRetry
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf(
				"%w: job %s is still %s after %v: %w",
				ErrWaitTimeout, j.detail.Id, j.detail.Status, timeout, err,
			)
		}
		return err
	}
	return nil
}

// Logs fetches the job log, filtered by q, in server order.
//
// An empty result is valid, not an error.
func (j *Job) Logs(ctx context.Context, q rest.LogQuery) ([]logs.Row, error) {
	return j.client.GetJobLogs(ctx, j.detail.Id, q)
}

// Result downloads and parses the sampled spectrum.
//
// The first successful call caches the spectrum for the lifetime of the
// Job; later calls return the same value without re-fetching.
//
// # Returns
//
// - *result.Spectrum
//
// - error: ErrResultNotReady until a poll has observed completed. Wait
// or Refresh first.
func (j *Job) Result(ctx context.Context) (*result.Spectrum, error) {
	if j.spectrum != nil {
		return j.spectrum, nil
	}
	if j.detail.Status != apijobs.Completed {
		return nil, fmt.Errorf("%w: job %s is %s", ErrResultNotReady, j.detail.Id, j.detail.Status)
	}

	var spectrum *result.Spectrum
	err := j.client.DownloadResult(ctx, j.detail.Id, func(r io.Reader) error {
		s, err := result.Decode(r)
		if err != nil {
			return err
		}
		spectrum = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching result of job %s: %w", j.detail.Id, err)
	}

	j.spectrum = spectrum
	return j.spectrum, nil
}

// DownloadResult streams the raw result container to w, without parsing
// or caching it.
//
// # Returns
//
// - error: ErrResultNotReady until a poll has observed completed.
func (j *Job) DownloadResult(ctx context.Context, w io.Writer) error {
	if j.detail.Status != apijobs.Completed {
		return fmt.Errorf("%w: job %s is %s", ErrResultNotReady, j.detail.Id, j.detail.Status)
	}

	err := j.client.DownloadResult(ctx, j.detail.Id, func(r io.Reader) error {
		_, err := io.Copy(w, r)
		return err
	})
	if err != nil {
		return fmt.Errorf("downloading result of job %s: %w", j.detail.Id, err)
	}
	return nil
}
