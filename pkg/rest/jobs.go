package rest

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/veloxq/veloxq-api-types/jobs"
	"github.com/veloxq/veloxq-api-types/logs"
)

func (c *client) SubmitJob(ctx context.Context, spec jobs.SubmitRequest) (jobs.Detail, error) {
	// One submission can carry several solvers, so the server answers
	// with a job per solver. This client submits one solver at a time
	// and keeps the first.
	created := make([]jobs.Detail, 0, 1)
	if err := c.postJSON(
		ctx, spec, &created, "the submission is refused", "jobs",
	); err != nil {
		return jobs.Detail{}, err
	}
	if len(created) == 0 {
		return jobs.Detail{}, fmt.Errorf("server accepted the submission but returned no job")
	}
	return created[0], nil
}

func (c *client) GetJob(ctx context.Context, jobId string) (jobs.Detail, error) {
	res := jobs.Detail{}
	if err := c.getJSON(
		ctx, &res, fmt.Sprintf("job %s is missing", jobId), nil,
		"jobs", jobId,
	); err != nil {
		return jobs.Detail{}, err
	}
	return res, nil
}

func (c *client) FindJobs(ctx context.Context, param FindJobsParameter) ([]jobs.Detail, error) {
	q := url.Values{}
	q.Add("_page", strconv.Itoa(pageOrFirst(param.Page)))
	q.Add("_limit", strconv.Itoa(limitOrDefault(param.Limit)))
	if param.Status != "" {
		q.Add("status", string(param.Status))
	}
	if param.CreatedAt != "" {
		q.Add("createdAt", string(param.CreatedAt))
	}
	return listPage[jobs.Detail](ctx, c, q, "jobs")
}

func (c *client) GetJobLogs(ctx context.Context, jobId string, query LogQuery) ([]logs.Row, error) {
	period := query.TimePeriod
	if period == "" {
		period = logs.AllTime
	}
	q := url.Values{}
	q.Add("time_period", string(period))
	if query.Category != "" {
		q.Add("category", string(query.Category))
	}
	if query.Message != "" {
		q.Add("q", query.Message)
	}

	// logs come as a bare array, without the listing envelope.
	rows := make([]logs.Row, 0, 16)
	if err := c.getJSON(
		ctx, &rows, fmt.Sprintf("job %s is missing", jobId), q,
		"jobs", jobId, "logs",
	); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *client) DownloadResult(ctx context.Context, jobId string, handler func(io.Reader) error) error {
	q := url.Values{}
	q.Add("type", "hdf5")

	r, err := c.getStream(
		ctx, fmt.Sprintf("the result of job %s is not served", jobId), q,
		c.apipath("jobs", jobId, "result", "download"),
	)
	if err != nil {
		return err
	}
	defer r.Close()

	return serve(r, handler)
}
