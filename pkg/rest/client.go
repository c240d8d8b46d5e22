package rest

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/veloxq/veloxq-api-types/jobs"
	"github.com/veloxq/veloxq-api-types/logs"
	"github.com/veloxq/veloxq-api-types/problems"
	kprof "github.com/veloxq/veloxq-go/pkg/configs/profiles"
	"github.com/veloxq/veloxq-go/pkg/utils"
)

// HeaderAPIKey is the header carrying the API key on each request.
const HeaderAPIKey = "x-veloxq-auth-key"

// DefaultLimit is the page size used when a find parameter leaves Limit zero.
const DefaultLimit = 1000

// FindProblemsParameter filters "GET problems".
type FindProblemsParameter struct {
	// Name query. Empty means no filter.
	Name string

	// Page number, starting at 1. Zero means the first page.
	Page int

	// Limit per page. Zero means DefaultLimit.
	Limit int
}

// FindFilesParameter filters file listings.
//
// Results come newest first.
type FindFilesParameter struct {
	// Name query. Empty means no filter.
	Name string

	Page  int
	Limit int
}

// FindJobsParameter filters "GET jobs".
type FindJobsParameter struct {
	// Status keeps only jobs in this status. Empty means all statuses.
	Status jobs.Status

	// CreatedAt keeps only jobs created within this period.
	CreatedAt jobs.PeriodFilter

	Page  int
	Limit int
}

// LogQuery filters job log retrieval.
type LogQuery struct {
	// Category keeps only entries of this category. Empty means all.
	Category logs.Category

	// TimePeriod restricts entries to a window ending now.
	// Empty means logs.AllTime.
	TimePeriod logs.TimePeriod

	// Message keeps only entries whose message contains this substring.
	Message string
}

type Client interface {
	// CreateProblem registers a new problem.
	//
	// # Args
	//
	// - context.Context
	//
	// - string: name of the problem to be created
	//
	// # Returns
	//
	// - problems.Detail: metadata of created problem
	//
	// - error
	CreateProblem(ctx context.Context, name string) (problems.Detail, error)

	// FindProblems finds problems with given filter.
	//
	// # Args
	//
	// - context.Context
	//
	// - FindProblemsParameter
	//
	// # Returns
	//
	// - []problems.Detail: metadata of found problems
	//
	// - error
	FindProblems(ctx context.Context, q FindProblemsParameter) ([]problems.Detail, error)

	// GetProblem gets problem detail with given problemId.
	GetProblem(ctx context.Context, problemId string) (problems.Detail, error)

	// RequestUpload creates a new file record under a problem,
	// reserving a slot for its content.
	//
	// # Args
	//
	// - context.Context
	//
	// - string: problemId owning the new file
	//
	// - problems.UploadRequest: name and size of the file to be created
	//
	// # Returns
	//
	// - problems.File: the reserved file record. Upload its content with Upload.
	//
	// - error
	RequestUpload(ctx context.Context, problemId string, spec problems.UploadRequest) (problems.File, error)

	// Upload streams content of a file reserved by RequestUpload.
	//
	// The upload runs in background; watch the returned Progress for
	// completion and its result.
	//
	// # Args
	//
	// - context.Context
	//
	// - problems.File: the file record to be filled
	//
	// - io.Reader: content. It is read until EOF and sent as-is.
	//
	// # Returns
	//
	// - Progress[*problems.File]: upload progress. Result() returns
	// the completed file record.
	Upload(ctx context.Context, file problems.File, source io.Reader) Progress[*problems.File]

	// UploadStatus refreshes a file record from the platform.
	UploadStatus(ctx context.Context, problemId string, fileId string) (problems.File, error)

	// FindProblemFiles finds files of one problem.
	FindProblemFiles(ctx context.Context, problemId string, q FindFilesParameter) ([]problems.File, error)

	// FindFiles finds files over all problems, newest first.
	FindFiles(ctx context.Context, q FindFilesParameter) ([]problems.File, error)

	// GetFile gets file detail with given fileId.
	GetFile(ctx context.Context, fileId string) (problems.File, error)

	// DeleteFile deletes a file.
	//
	// # Args
	//
	// - context.Context
	//
	// - string: problemId owning the file
	//
	// - string: fileId to be deleted
	//
	// # Returns
	//
	// - error
	DeleteFile(ctx context.Context, problemId string, fileId string) error

	// DownloadFile streams content of a file.
	//
	// # Args
	//
	// - problemId, fileId: the file to be downloaded
	//
	// - handler: receives the raw stream. An error from handler stops
	// the download and comes back from this call.
	//
	// # Returns
	//
	// - error: failure to start the download, or the one from handler.
	DownloadFile(ctx context.Context, problemId string, fileId string, handler func(io.Reader) error) error

	// SubmitJob submits a job running solvers against uploaded files.
	//
	// # Args
	//
	// - context.Context
	//
	// - jobs.SubmitRequest: problem, solver, backend, files and parameters
	//
	// # Returns
	//
	// - jobs.Detail: metadata of the submitted job
	//
	// - error
	SubmitJob(ctx context.Context, spec jobs.SubmitRequest) (jobs.Detail, error)

	// GetJob gets job detail with given jobId.
	//
	// # Args
	//
	// - context.Context
	//
	// - string: jobId to be found
	//
	// # Returns
	//
	// - jobs.Detail: metadata of found job
	//
	// - error
	GetJob(ctx context.Context, jobId string) (jobs.Detail, error)

	// FindJobs finds jobs with given filter.
	FindJobs(ctx context.Context, q FindJobsParameter) ([]jobs.Detail, error)

	// GetJobLogs gets log entries of a job.
	//
	// # Args
	//
	// - context.Context
	//
	// - string: jobId whose logs to be retrieved
	//
	// - LogQuery: category/time window/substring filters
	//
	// # Returns
	//
	// - []logs.Row: log entries, in server-provided order
	//
	// - error
	GetJobLogs(ctx context.Context, jobId string, q LogQuery) ([]logs.Row, error)

	// DownloadResult streams the result container of a completed job.
	//
	// # Args
	//
	// - string: jobId whose result to be downloaded
	//
	// - handler: receives the raw stream. An error from handler stops
	// the download and comes back from this call.
	//
	// # Returns
	//
	// - error: failure to start the download, or the one from handler.
	DownloadResult(ctx context.Context, jobId string, handler func(io.Reader) error) error
}

type client struct {
	httpclient *http.Client
	api        string
	key        string
}

// NewClient builds a Client for the endpoint and key in prof.
//
// # Args
//
// - *kprof.Profile: verified before use. ErrProfileInvalid when it
// does not pass.
//
// # Return
//
// - Client
//
// - error
func NewClient(prof *kprof.Profile) (Client, error) {
	if err := prof.Verify(); err != nil {
		return nil, err
	}

	hc := new(http.Client)
	if prof.Cert.CA != "" {
		tran, err := pinnedTransport(prof.Cert.CA)
		if err != nil {
			return nil, err
		}
		hc.Transport = tran
	}

	return &client{
		httpclient: hc,
		api:        strings.TrimSuffix(prof.ApiRoot, "/"),
		key:        prof.ApiKey,
	}, nil
}

// send a request with the API key attached.
func (c *client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set(HeaderAPIKey, c.key)
	return c.httpclient.Do(req)
}

// join path segments under the API root.
func (c *client) apipath(path ...string) string {
	path = utils.Map(path, func(p string) string { return strings.Trim(p, "/") })
	return strings.Join(append([]string{c.api}, path...), "/")
}

// failure labels the error classes of resp. rejected words the 4xx
// case; every 5xx reads the same.
func failure(resp *http.Response, rejected string) MessageFor {
	return MessageFor{
		Status4xx: fmt.Sprintf("%s (status %d)", rejected, resp.StatusCode),
		Status5xx: fmt.Sprintf("platform error (status %d)", resp.StatusCode),
	}
}

// getJSON issues a GET under the API root and decodes the JSON answer
// into out.
func (c *client) getJSON(ctx context.Context, out any, rejected string, query url.Values, path ...string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath(path...), nil)
	if err != nil {
		return err
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return unmarshalJsonResponse(resp, out, failure(resp, rejected))
}

// postJSON issues a POST under the API root with body JSON-encoded,
// decoding the JSON answer into out.
func (c *client) postJSON(ctx context.Context, body any, out any, rejected string, path ...string) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath(path...), bytes.NewReader(raw),
	)
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return unmarshalJsonResponse(resp, out, failure(resp, rejected))
}

// listPage fetches one page of a listing endpoint, unwrapping the data
// envelope.
func listPage[T any](ctx context.Context, c *client, query url.Values, path ...string) ([]T, error) {
	found := listEnvelope[T]{}
	if err := c.getJSON(
		ctx, &found,
		fmt.Sprintf("listing %s is refused", path[len(path)-1]),
		query, path...,
	); err != nil {
		return nil, err
	}
	return found.Data, nil
}

// getStream issues a GET to rawurl and hands the raw body through on
// success. The caller owns closing it.
func (c *client) getStream(ctx context.Context, rejected string, query url.Values, rawurl string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, err
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}

	r, err := unmarshalStreamResponse(resp, failure(resp, rejected))
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	return r, nil
}

// serve hands r to handler, draining whatever it leaves unread so the
// connection can be reused.
func serve(r io.Reader, handler func(io.Reader) error) error {
	if err := handler(r); err != nil {
		return err
	}
	_, err := io.Copy(io.Discard, r)
	return err
}

// pinnedTransport clones the default transport and roots its TLS trust
// at the profile's CA instead of the system pool.
func pinnedTransport(b64ca string) (*http.Transport, error) {
	bin, err := base64.StdEncoding.DecodeString(b64ca)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(bin) {
		return nil, fmt.Errorf("cert.ca holds no usable certificate")
	}

	tran, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("cannot pin a CA on the default transport")
	}
	tran = tran.Clone()
	if tran.TLSClientConfig == nil {
		tran.TLSClientConfig = &tls.Config{}
	}
	tran.TLSClientConfig.RootCAs = pool
	return tran, nil
}
