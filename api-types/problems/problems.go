package problems

import (
	"github.com/veloxq/veloxq-api-types/misc/rfctime"
)

// Detail is a problem registered on the VeloxQ platform.
//
// A problem is a grouping entity: files are created within the scope of
// one problem, and jobs are submitted against files of one problem.
type Detail struct {
	Id        string          `json:"id"`
	Name      string          `json:"name"`
	CreatedAt rfctime.RFC3339 `json:"createdAt"`
	UpdatedAt rfctime.RFC3339 `json:"updatedAt"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Id == o.Id &&
		d.Name == o.Name &&
		d.CreatedAt.Equal(o.CreatedAt) &&
		d.UpdatedAt.Equal(o.UpdatedAt)
}

// CreateRequest is the body of "POST problems".
type CreateRequest struct {
	Name string `json:"name"`
}

// FileStatus is the upload state of a file as reported by the platform.
type FileStatus string

const (
	FilePending   FileStatus = "pending"
	FileCompleted FileStatus = "completed"
)

// File is a named blob stored under a problem.
//
// ProblemId is a lookup reference, not an ownership edge: files can be
// listed and fetched independently of their problem.
type File struct {
	Id            string           `json:"id"`
	Name          string           `json:"name"`
	Size          int64            `json:"size"`
	UploadedBytes int64            `json:"uploadedBytes"`
	ProblemId     string           `json:"problemId"`
	Status        FileStatus       `json:"status"`
	CreatedAt     rfctime.RFC3339  `json:"createdAt"`
	UpdatedAt     *rfctime.RFC3339 `json:"updatedAt,omitempty"`
}

func (f File) Equal(o File) bool {
	updatedAtEq := (f.UpdatedAt == nil && o.UpdatedAt == nil) ||
		(f.UpdatedAt != nil && o.UpdatedAt != nil && f.UpdatedAt.Equal(*o.UpdatedAt))

	return f.Id == o.Id &&
		f.Name == o.Name &&
		f.Size == o.Size &&
		f.UploadedBytes == o.UploadedBytes &&
		f.ProblemId == o.ProblemId &&
		f.Status == o.Status &&
		f.CreatedAt.Equal(o.CreatedAt) &&
		updatedAtEq
}

// UploadRequest is the body of "POST problems/{id}/files/upload-request".
//
// Field names follow the wire contract of that endpoint, which takes
// snake_case keys unlike the rest of the API.
type UploadRequest struct {
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}
