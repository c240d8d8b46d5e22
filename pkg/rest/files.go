package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/veloxq/veloxq-api-types/problems"
	vio "github.com/veloxq/veloxq-go/pkg/utils/io"
)

func (c *client) RequestUpload(ctx context.Context, problemId string, spec problems.UploadRequest) (problems.File, error) {
	res := problems.File{}
	if err := c.postJSON(
		ctx, spec, &res, "the upload request is refused",
		"problems", problemId, "files", "upload-request",
	); err != nil {
		return problems.File{}, err
	}
	return res, nil
}

func (c *client) Upload(ctx context.Context, file problems.File, source io.Reader) Progress[*problems.File] {
	ctx, cancel := context.WithCancel(ctx)

	prog := &progress{
		total: file.Size,
		sent:  make(chan struct{}, 1),
		done:  make(chan struct{}, 1),
	}

	treader := vio.NewTriggerReader(meteredReader{r: source, n: &prog.transferred})
	treader.OnEnd(func() { close(prog.sent) })

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.apipath("problems", file.ProblemId, "files", file.Id, "upload"),
		treader,
	)
	if err != nil {
		cancel()
		prog.e = err
		close(prog.done)
		return prog
	}
	req.Header.Add("Content-Type", "application/octet-stream")
	req.ContentLength = file.Size

	go func() {
		defer close(prog.done)
		defer cancel()

		// fill the slot reserved by RequestUpload.
		resp, err := c.do(req)
		if err != nil {
			prog.e = err
			return
		}
		defer resp.Body.Close()

		res := &problems.File{}
		if err := unmarshalJsonResponse(
			resp, res, failure(resp, "the upload is refused"),
		); err != nil {
			prog.e = err
			return
		}

		prog.result = res
		prog.resultOk = true
	}()

	return prog
}

func (c *client) UploadStatus(ctx context.Context, problemId string, fileId string) (problems.File, error) {
	res := problems.File{}
	if err := c.getJSON(
		ctx, &res, fmt.Sprintf("file %s is missing", fileId), nil,
		"problems", problemId, "files", fileId, "upload-status",
	); err != nil {
		return problems.File{}, err
	}
	return res, nil
}

func (c *client) FindProblemFiles(ctx context.Context, problemId string, param FindFilesParameter) ([]problems.File, error) {
	return listPage[problems.File](ctx, c, fileQuery(param, false), "problems", problemId, "files")
}

func (c *client) FindFiles(ctx context.Context, param FindFilesParameter) ([]problems.File, error) {
	return listPage[problems.File](ctx, c, fileQuery(param, true), "files")
}

// global listings are sorted newest first; per-problem ones keep server order.
func fileQuery(param FindFilesParameter, sorted bool) url.Values {
	q := url.Values{}
	q.Add("_page", strconv.Itoa(pageOrFirst(param.Page)))
	q.Add("_limit", strconv.Itoa(limitOrDefault(param.Limit)))
	if sorted {
		q.Add("_sort", "created_at")
		q.Add("order", "desc")
	}
	if param.Name != "" {
		q.Add("q", param.Name)
	}
	return q
}

func (c *client) GetFile(ctx context.Context, fileId string) (problems.File, error) {
	res := problems.File{}
	if err := c.getJSON(
		ctx, &res, fmt.Sprintf("file %s is missing", fileId), nil,
		"files", fileId,
	); err != nil {
		return problems.File{}, err
	}
	return res, nil
}

func (c *client) DeleteFile(ctx context.Context, problemId string, fileId string) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodDelete,
		c.apipath("problems", problemId, "files", fileId),
		nil,
	)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return unmarshalResponseDiscardingPayload(
		resp, failure(resp, fmt.Sprintf("deleting file %s is refused", fileId)),
	)
}

func (c *client) DownloadFile(ctx context.Context, problemId string, fileId string, handler func(io.Reader) error) error {
	// the endpoint answers with the URL serving the content, not with
	// the content itself.
	urlBody, err := c.getStream(
		ctx, fmt.Sprintf("file %s is missing", fileId), nil,
		c.apipath("problems", problemId, "files", fileId, "download"),
	)
	if err != nil {
		return err
	}
	rawUrl, err := io.ReadAll(urlBody)
	urlBody.Close()
	if err != nil {
		return err
	}
	contentUrl := strings.TrimSpace(string(rawUrl))
	if contentUrl == "" {
		return fmt.Errorf("no download URL came back for file %s", fileId)
	}

	content, err := c.getStream(
		ctx, fmt.Sprintf("the content of file %s is not served", fileId),
		nil, contentUrl,
	)
	if err != nil {
		return err
	}
	defer content.Close()

	return serve(content, handler)
}
