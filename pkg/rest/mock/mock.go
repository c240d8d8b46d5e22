package mock

import (
	"context"
	"io"
	"testing"

	"github.com/veloxq/veloxq-api-types/jobs"
	"github.com/veloxq/veloxq-api-types/logs"
	"github.com/veloxq/veloxq-api-types/problems"
	"github.com/veloxq/veloxq-go/pkg/rest"
)

type RequestUploadArgs struct {
	ProblemId string
	Spec      problems.UploadRequest
}

type UploadArgs struct {
	File problems.File
}

type FindProblemFilesArgs struct {
	ProblemId string
	Param     rest.FindFilesParameter
}

type FileArgs struct {
	ProblemId string
	FileId    string
}

type GetJobLogsArgs struct {
	JobId string
	Query rest.LogQuery
}

// New returns a mocked rest.Client bound to t.
//
// Calling a method whose Impl field is unset fails the test.
func New(t *testing.T) *Client {
	return &Client{t: t}
}

type MockedUploadProgress struct {
	TotalSize_ int64

	TransferredSize_ int64

	Error_ error

	Result_ *problems.File

	ResultOk_ bool

	Done_ <-chan struct{}

	Sent_ <-chan struct{}
}

func (m *MockedUploadProgress) TotalSize() int64 {
	return m.TotalSize_
}

func (m *MockedUploadProgress) TransferredSize() int64 {
	return m.TransferredSize_
}

func (m *MockedUploadProgress) Error() error {
	return m.Error_
}

func (m *MockedUploadProgress) Result() (*problems.File, bool) {
	return m.Result_, m.ResultOk_
}

func (m *MockedUploadProgress) Done() <-chan struct{} {
	return m.Done_
}

func (m *MockedUploadProgress) Sent() <-chan struct{} {
	return m.Sent_
}

// ClosedChan returns a closed channel, for mocked Done/Sent fields.
func ClosedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Client is a test double for rest.Client. Script its methods through
// Impl; every invocation is recorded in Calls.
type Client struct {
	t    *testing.T
	Impl struct {
		CreateProblem    func(ctx context.Context, name string) (problems.Detail, error)
		FindProblems     func(ctx context.Context, q rest.FindProblemsParameter) ([]problems.Detail, error)
		GetProblem       func(ctx context.Context, problemId string) (problems.Detail, error)
		RequestUpload    func(ctx context.Context, problemId string, spec problems.UploadRequest) (problems.File, error)
		Upload           func(ctx context.Context, file problems.File, source io.Reader) rest.Progress[*problems.File]
		UploadStatus     func(ctx context.Context, problemId string, fileId string) (problems.File, error)
		FindProblemFiles func(ctx context.Context, problemId string, q rest.FindFilesParameter) ([]problems.File, error)
		FindFiles        func(ctx context.Context, q rest.FindFilesParameter) ([]problems.File, error)
		GetFile          func(ctx context.Context, fileId string) (problems.File, error)
		DeleteFile       func(ctx context.Context, problemId string, fileId string) error
		DownloadFile     func(ctx context.Context, problemId string, fileId string, handler func(io.Reader) error) error
		SubmitJob        func(ctx context.Context, spec jobs.SubmitRequest) (jobs.Detail, error)
		GetJob           func(ctx context.Context, jobId string) (jobs.Detail, error)
		FindJobs         func(ctx context.Context, q rest.FindJobsParameter) ([]jobs.Detail, error)
		GetJobLogs       func(ctx context.Context, jobId string, q rest.LogQuery) ([]logs.Row, error)
		DownloadResult   func(ctx context.Context, jobId string, handler func(io.Reader) error) error
	}
	Calls struct {
		CreateProblem    []string
		FindProblems     []rest.FindProblemsParameter
		GetProblem       []string
		RequestUpload    []RequestUploadArgs
		Upload           []UploadArgs
		UploadStatus     []FileArgs
		FindProblemFiles []FindProblemFilesArgs
		FindFiles        []rest.FindFilesParameter
		GetFile          []string
		DeleteFile       []FileArgs
		DownloadFile     []FileArgs
		SubmitJob        []jobs.SubmitRequest
		GetJob           []string
		FindJobs         []rest.FindJobsParameter
		GetJobLogs       []GetJobLogsArgs
		DownloadResult   []string
	}
}

var _ rest.Client = &Client{}

func (m *Client) CreateProblem(ctx context.Context, name string) (problems.Detail, error) {
	m.t.Helper()

	m.Calls.CreateProblem = append(m.Calls.CreateProblem, name)
	if m.Impl.CreateProblem == nil {
		m.t.Fatal("CreateProblem is not ready to be called")
	}
	return m.Impl.CreateProblem(ctx, name)
}

func (m *Client) FindProblems(ctx context.Context, q rest.FindProblemsParameter) ([]problems.Detail, error) {
	m.t.Helper()

	m.Calls.FindProblems = append(m.Calls.FindProblems, q)
	if m.Impl.FindProblems == nil {
		m.t.Fatal("FindProblems is not ready to be called")
	}
	return m.Impl.FindProblems(ctx, q)
}

func (m *Client) GetProblem(ctx context.Context, problemId string) (problems.Detail, error) {
	m.t.Helper()

	m.Calls.GetProblem = append(m.Calls.GetProblem, problemId)
	if m.Impl.GetProblem == nil {
		m.t.Fatal("GetProblem is not ready to be called")
	}
	return m.Impl.GetProblem(ctx, problemId)
}

func (m *Client) RequestUpload(ctx context.Context, problemId string, spec problems.UploadRequest) (problems.File, error) {
	m.t.Helper()

	m.Calls.RequestUpload = append(m.Calls.RequestUpload, RequestUploadArgs{ProblemId: problemId, Spec: spec})
	if m.Impl.RequestUpload == nil {
		m.t.Fatal("RequestUpload is not ready to be called")
	}
	return m.Impl.RequestUpload(ctx, problemId, spec)
}

func (m *Client) Upload(ctx context.Context, file problems.File, source io.Reader) rest.Progress[*problems.File] {
	m.t.Helper()

	m.Calls.Upload = append(m.Calls.Upload, UploadArgs{File: file})
	if m.Impl.Upload == nil {
		m.t.Fatal("Upload is not ready to be called")
	}
	return m.Impl.Upload(ctx, file, source)
}

func (m *Client) UploadStatus(ctx context.Context, problemId string, fileId string) (problems.File, error) {
	m.t.Helper()

	m.Calls.UploadStatus = append(m.Calls.UploadStatus, FileArgs{ProblemId: problemId, FileId: fileId})
	if m.Impl.UploadStatus == nil {
		m.t.Fatal("UploadStatus is not ready to be called")
	}
	return m.Impl.UploadStatus(ctx, problemId, fileId)
}

func (m *Client) FindProblemFiles(ctx context.Context, problemId string, q rest.FindFilesParameter) ([]problems.File, error) {
	m.t.Helper()

	m.Calls.FindProblemFiles = append(m.Calls.FindProblemFiles, FindProblemFilesArgs{ProblemId: problemId, Param: q})
	if m.Impl.FindProblemFiles == nil {
		m.t.Fatal("FindProblemFiles is not ready to be called")
	}
	return m.Impl.FindProblemFiles(ctx, problemId, q)
}

func (m *Client) FindFiles(ctx context.Context, q rest.FindFilesParameter) ([]problems.File, error) {
	m.t.Helper()

	m.Calls.FindFiles = append(m.Calls.FindFiles, q)
	if m.Impl.FindFiles == nil {
		m.t.Fatal("FindFiles is not ready to be called")
	}
	return m.Impl.FindFiles(ctx, q)
}

func (m *Client) GetFile(ctx context.Context, fileId string) (problems.File, error) {
	m.t.Helper()

	m.Calls.GetFile = append(m.Calls.GetFile, fileId)
	if m.Impl.GetFile == nil {
		m.t.Fatal("GetFile is not ready to be called")
	}
	return m.Impl.GetFile(ctx, fileId)
}

func (m *Client) DeleteFile(ctx context.Context, problemId string, fileId string) error {
	m.t.Helper()

	m.Calls.DeleteFile = append(m.Calls.DeleteFile, FileArgs{ProblemId: problemId, FileId: fileId})
	if m.Impl.DeleteFile == nil {
		m.t.Fatal("DeleteFile is not ready to be called")
	}
	return m.Impl.DeleteFile(ctx, problemId, fileId)
}

func (m *Client) DownloadFile(ctx context.Context, problemId string, fileId string, handler func(io.Reader) error) error {
	m.t.Helper()

	m.Calls.DownloadFile = append(m.Calls.DownloadFile, FileArgs{ProblemId: problemId, FileId: fileId})
	if m.Impl.DownloadFile == nil {
		m.t.Fatal("DownloadFile is not ready to be called")
	}
	return m.Impl.DownloadFile(ctx, problemId, fileId, handler)
}

func (m *Client) SubmitJob(ctx context.Context, spec jobs.SubmitRequest) (jobs.Detail, error) {
	m.t.Helper()

	m.Calls.SubmitJob = append(m.Calls.SubmitJob, spec)
	if m.Impl.SubmitJob == nil {
		m.t.Fatal("SubmitJob is not ready to be called")
	}
	return m.Impl.SubmitJob(ctx, spec)
}

func (m *Client) GetJob(ctx context.Context, jobId string) (jobs.Detail, error) {
	m.t.Helper()

	m.Calls.GetJob = append(m.Calls.GetJob, jobId)
	if m.Impl.GetJob == nil {
		m.t.Fatal("GetJob is not ready to be called")
	}
	return m.Impl.GetJob(ctx, jobId)
}

func (m *Client) FindJobs(ctx context.Context, q rest.FindJobsParameter) ([]jobs.Detail, error) {
	m.t.Helper()

	m.Calls.FindJobs = append(m.Calls.FindJobs, q)
	if m.Impl.FindJobs == nil {
		m.t.Fatal("FindJobs is not ready to be called")
	}
	return m.Impl.FindJobs(ctx, q)
}

func (m *Client) GetJobLogs(ctx context.Context, jobId string, q rest.LogQuery) ([]logs.Row, error) {
	m.t.Helper()

	m.Calls.GetJobLogs = append(m.Calls.GetJobLogs, GetJobLogsArgs{JobId: jobId, Query: q})
	if m.Impl.GetJobLogs == nil {
		m.t.Fatal("GetJobLogs is not ready to be called")
	}
	return m.Impl.GetJobLogs(ctx, jobId, q)
}

func (m *Client) DownloadResult(ctx context.Context, jobId string, handler func(io.Reader) error) error {
	m.t.Helper()

	m.Calls.DownloadResult = append(m.Calls.DownloadResult, jobId)
	if m.Impl.DownloadResult == nil {
		m.t.Fatal("DownloadResult is not ready to be called")
	}
	return m.Impl.DownloadResult(ctx, jobId, handler)
}
