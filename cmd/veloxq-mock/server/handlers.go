package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	apierr "github.com/veloxq/veloxq-api-types/errors"
	"github.com/veloxq/veloxq-api-types/jobs"
	"github.com/veloxq/veloxq-api-types/logs"
	"github.com/veloxq/veloxq-api-types/problems"
	"github.com/veloxq/veloxq-go/cmd/veloxq-mock/store"
)

// Handlers binds the platform wire surface onto an echo instance,
// backed by the given store.
func Handlers(s *store.Store) Routes {
	return func(e *echo.Echo) {
		e.POST("/problems", CreateProblem(s))
		e.GET("/problems", FindProblems(s))
		e.GET("/problems/:problemId", GetProblem(s))

		e.POST("/problems/:problemId/files/upload-request", RequestUpload(s))
		e.POST("/problems/:problemId/files/:fileId/upload", Upload(s))
		e.GET("/problems/:problemId/files/:fileId/upload-status", UploadStatus(s))
		e.GET("/problems/:problemId/files", FindProblemFiles(s))
		e.DELETE("/problems/:problemId/files/:fileId", DeleteFile(s))
		e.GET("/problems/:problemId/files/:fileId/download", DownloadURL(s))
		e.GET("/files", FindFiles(s))
		e.GET("/files/:fileId", GetFile(s))
		e.GET("/blob/files/:fileId", DownloadBlob(s))

		e.POST("/jobs", SubmitJobs(s))
		e.GET("/jobs", FindJobs(s))
		e.GET("/jobs/:jobId", GetJob(s))
		e.GET("/jobs/:jobId/logs", JobLogs(s))
		e.GET("/jobs/:jobId/result/download", DownloadResult(s))
	}
}

// listing is the envelope of list responses.
type listing[T any] struct {
	Data []T `json:"data"`
}

func sendError(c echo.Context, err error) error {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrNotReady):
		status = http.StatusConflict
	}
	return c.JSON(status, apierr.ErrorMessage{
		Message:    err.Error(),
		StatusCode: status,
	})
}

func notFound(c echo.Context, kind string, id string) error {
	return c.JSON(http.StatusNotFound, apierr.ErrorMessage{
		Message:    fmt.Sprintf("%s %s is not found", kind, id),
		StatusCode: http.StatusNotFound,
	})
}

func intQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed %s: %s", store.ErrBadRequest, name, raw)
	}
	return v, nil
}

func pagedQuery(c echo.Context) (store.Query, error) {
	page, err := intQuery(c, "_page")
	if err != nil {
		return store.Query{}, err
	}
	limit, err := intQuery(c, "_limit")
	if err != nil {
		return store.Query{}, err
	}
	return store.Query{Name: c.QueryParam("q"), Page: page, Limit: limit}, nil
}

func CreateProblem(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := struct {
			Name string `json:"name"`
		}{}
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return sendError(c, fmt.Errorf("%w: malformed body: %s", store.ErrBadRequest, err))
		}
		det, err := s.CreateProblem(req.Name)
		if err != nil {
			return sendError(c, err)
		}
		return c.JSON(http.StatusCreated, det)
	}
}

func FindProblems(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		q, err := pagedQuery(c)
		if err != nil {
			return sendError(c, err)
		}
		return c.JSON(http.StatusOK, listing[problems.Detail]{Data: s.Problems(q)})
	}
}

func GetProblem(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		problemId := c.Param("problemId")
		det, ok := s.Problem(problemId)
		if !ok {
			return notFound(c, "problem", problemId)
		}
		return c.JSON(http.StatusOK, det)
	}
}

func RequestUpload(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		spec := problems.UploadRequest{}
		if err := json.NewDecoder(c.Request().Body).Decode(&spec); err != nil {
			return sendError(c, fmt.Errorf("%w: malformed body: %s", store.ErrBadRequest, err))
		}
		det, err := s.RequestUpload(c.Param("problemId"), spec)
		if err != nil {
			return sendError(c, err)
		}
		return c.JSON(http.StatusCreated, det)
	}
}

func Upload(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		content, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return sendError(c, fmt.Errorf("%w: reading upload: %s", store.ErrBadRequest, err))
		}
		det, err := s.Upload(c.Param("problemId"), c.Param("fileId"), content)
		if err != nil {
			return sendError(c, err)
		}
		return c.JSON(http.StatusOK, det)
	}
}

func UploadStatus(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		fileId := c.Param("fileId")
		det, ok := s.ProblemFile(c.Param("problemId"), fileId)
		if !ok {
			return notFound(c, "file", fileId)
		}
		return c.JSON(http.StatusOK, det)
	}
}

func FindProblemFiles(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		q, err := pagedQuery(c)
		if err != nil {
			return sendError(c, err)
		}
		problemId := c.Param("problemId")
		found, ok := s.ProblemFiles(problemId, q)
		if !ok {
			return notFound(c, "problem", problemId)
		}
		return c.JSON(http.StatusOK, listing[problems.File]{Data: found})
	}
}

// FindFiles lists files over all problems, newest first whatever
// _sort and order say.
func FindFiles(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		q, err := pagedQuery(c)
		if err != nil {
			return sendError(c, err)
		}
		return c.JSON(http.StatusOK, listing[problems.File]{Data: s.Files(q)})
	}
}

func GetFile(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		fileId := c.Param("fileId")
		det, ok := s.File(fileId)
		if !ok {
			return notFound(c, "file", fileId)
		}
		return c.JSON(http.StatusOK, det)
	}
}

func DeleteFile(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		fileId := c.Param("fileId")
		if !s.DeleteFile(c.Param("problemId"), fileId) {
			return notFound(c, "file", fileId)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// DownloadURL sends the location of the file content as plain text,
// pointing back at this server.
func DownloadURL(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		fileId := c.Param("fileId")
		if _, ok := s.ProblemFile(c.Param("problemId"), fileId); !ok {
			return notFound(c, "file", fileId)
		}
		url := fmt.Sprintf("%s://%s/blob/files/%s", c.Scheme(), c.Request().Host, fileId)
		return c.String(http.StatusOK, url+"\n")
	}
}

func DownloadBlob(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		fileId := c.Param("fileId")
		content, ok := s.FileContent(fileId)
		if !ok {
			return notFound(c, "file", fileId)
		}
		return c.Blob(http.StatusOK, "application/octet-stream", content)
	}
}

func SubmitJobs(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		spec := jobs.SubmitRequest{}
		if err := json.NewDecoder(c.Request().Body).Decode(&spec); err != nil {
			return sendError(c, fmt.Errorf("%w: malformed body: %s", store.ErrBadRequest, err))
		}
		created, err := s.Submit(spec)
		if err != nil {
			return sendError(c, err)
		}
		return c.JSON(http.StatusCreated, created)
	}
}

func FindJobs(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		page, err := intQuery(c, "_page")
		if err != nil {
			return sendError(c, err)
		}
		limit, err := intQuery(c, "_limit")
		if err != nil {
			return sendError(c, err)
		}
		q := store.JobQuery{Page: page, Limit: limit}
		if raw := c.QueryParam("status"); raw != "" {
			status, err := jobs.ParseStatus(raw)
			if err != nil {
				return sendError(c, fmt.Errorf("%w: %s", store.ErrBadRequest, err))
			}
			q.Status = status
		}
		if raw := c.QueryParam("createdAt"); raw != "" {
			period, err := jobs.ParsePeriodFilter(raw)
			if err != nil {
				return sendError(c, fmt.Errorf("%w: %s", store.ErrBadRequest, err))
			}
			q.CreatedAt = period
		}
		return c.JSON(http.StatusOK, listing[jobs.Detail]{Data: s.Jobs(q)})
	}
}

func GetJob(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		jobId := c.Param("jobId")
		det, ok := s.Job(jobId)
		if !ok {
			return notFound(c, "job", jobId)
		}
		return c.JSON(http.StatusOK, det)
	}
}

// JobLogs sends matching rows as a bare array, without the listing
// envelope.
func JobLogs(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		f := store.LogFilter{Message: c.QueryParam("q")}
		if raw := c.QueryParam("time_period"); raw != "" {
			period, err := logs.ParseTimePeriod(raw)
			if err != nil {
				return sendError(c, fmt.Errorf("%w: %s", store.ErrBadRequest, err))
			}
			f.Period = period
		}
		if raw := c.QueryParam("category"); raw != "" {
			category, err := logs.ParseCategory(raw)
			if err != nil {
				return sendError(c, fmt.Errorf("%w: %s", store.ErrBadRequest, err))
			}
			f.Category = category
		}
		jobId := c.Param("jobId")
		found, ok := s.Logs(jobId, f)
		if !ok {
			return notFound(c, "job", jobId)
		}
		return c.JSON(http.StatusOK, found)
	}
}

func DownloadResult(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		if t := c.QueryParam("type"); t != "" && t != "hdf5" {
			return sendError(c, fmt.Errorf("%w: unsupported result type: %s", store.ErrBadRequest, t))
		}
		container, err := s.Result(c.Param("jobId"))
		if err != nil {
			return sendError(c, err)
		}
		return c.Blob(http.StatusOK, "application/octet-stream", container)
	}
}
