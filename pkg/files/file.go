// Package files manages uploaded problem instances as remote resources.
//
// A File is one uploaded payload within a Problem. Uploads are
// deduplicated by (problem, name): CreateOrGet transfers bytes only
// when no file of that name exists yet, unless forced.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/veloxq/veloxq-api-types/problems"
	"github.com/veloxq/veloxq-go/pkg/rest"
	"github.com/veloxq/veloxq-go/pkg/utils"
)

var ErrFileNotFound = errors.New("file not found")

// DefaultChunkSize bounds client memory while downloading.
const DefaultChunkSize = 1 << 20

// File is an uploaded payload stored on the platform.
type File struct {
	client rest.Client
	detail problems.File
}

// FromDetail wraps an already-fetched file record.
func FromDetail(c rest.Client, detail problems.File) *File {
	return &File{client: c, detail: detail}
}

func (f *File) Id() string {
	return f.detail.Id
}

func (f *File) Name() string {
	return f.detail.Name
}

func (f *File) Size() int64 {
	return f.detail.Size
}

func (f *File) ProblemId() string {
	return f.detail.ProblemId
}

func (f *File) Detail() problems.File {
	return f.detail
}

// Refresh re-reads the upload status of the file.
func (f *File) Refresh(ctx context.Context) error {
	detail, err := f.client.UploadStatus(ctx, f.detail.ProblemId, f.detail.Id)
	if err != nil {
		return fmt.Errorf("refreshing file %s: %w", f.detail.Id, err)
	}
	f.detail = detail
	return nil
}

// Download streams the stored bytes to w in chunks of DefaultChunkSize.
func (f *File) Download(ctx context.Context, w io.Writer) error {
	return f.DownloadChunked(ctx, w, DefaultChunkSize)
}

// DownloadChunked streams the stored bytes to w.
//
// # Args
//
// - chunkSize: read buffer size in bytes. At most this much of the
// payload is resident at once. Values < 1 fall back to DefaultChunkSize.
func (f *File) DownloadChunked(ctx context.Context, w io.Writer, chunkSize int) error {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	err := f.client.DownloadFile(ctx, f.detail.ProblemId, f.detail.Id, func(r io.Reader) error {
		_, err := io.CopyBuffer(w, r, make([]byte, chunkSize))
		return err
	})
	if err != nil {
		return fmt.Errorf("downloading file %s: %w", f.detail.Id, err)
	}
	return nil
}

// Delete removes the file from the platform.
func (f *File) Delete(ctx context.Context) error {
	if err := f.client.DeleteFile(ctx, f.detail.ProblemId, f.detail.Id); err != nil {
		return fmt.Errorf("deleting file %s: %w", f.detail.Id, err)
	}
	return nil
}

// Find returns the file named name within the problem.
//
// # Returns
//
// - *File
//
// - error: ErrFileNotFound when the problem has no file of that exact
// name.
func Find(ctx context.Context, c rest.Client, problem *Problem, name string) (*File, error) {
	found, err := c.FindProblemFiles(
		ctx, problem.Id(), rest.FindFilesParameter{Name: name},
	)
	if err != nil {
		return nil, fmt.Errorf("looking up file %q in problem %s: %w", name, problem.Id(), err)
	}

	// the name filter matches substrings; insist on the exact name.
	d, ok := utils.First(found, func(d problems.File) bool { return d.Name == name })
	if !ok {
		return nil, fmt.Errorf("%w: %q in problem %s", ErrFileNotFound, name, problem.Id())
	}
	return &File{client: c, detail: d}, nil
}

// StartUpload registers the payload with the problem and starts sending
// its bytes in the background.
//
// The returned Progress tracks the transfer; its Result carries the
// completed file record. Callers wanting a blocking upload should use
// CreateOrGet instead.
func StartUpload(ctx context.Context, c rest.Client, payload Payload, problem *Problem) (rest.Progress[*problems.File], error) {
	slot, err := c.RequestUpload(ctx, problem.Id(), problems.UploadRequest{
		FileName: payload.Name,
		Size:     payload.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("requesting upload of %q to problem %s: %w", payload.Name, problem.Id(), err)
	}

	source, err := payload.Open()
	if err != nil {
		return nil, fmt.Errorf("opening payload %q: %w", payload.Name, err)
	}

	prog := c.Upload(ctx, slot, source)
	go func() {
		<-prog.Done()
		source.Close()
	}()
	return prog, nil
}

// CreateOrGet returns the file named payload.Name within the problem,
// uploading the payload when the name is still free.
//
// With force, the payload is uploaded even when the name is taken; the
// stored bytes then reflect this call. Concurrent callers racing on the
// same new name may both upload, the platform keeps the last write.
func CreateOrGet(ctx context.Context, c rest.Client, payload Payload, problem *Problem, force bool) (*File, error) {
	if !force {
		existing, err := Find(ctx, c, problem, payload.Name)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, ErrFileNotFound) {
			return nil, err
		}
	}

	prog, err := StartUpload(ctx, c, payload, problem)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-prog.Done():
	}
	if err := prog.Error(); err != nil {
		return nil, fmt.Errorf("uploading %q to problem %s: %w", payload.Name, problem.Id(), err)
	}

	uploaded, ok := prog.Result()
	if !ok {
		return nil, fmt.Errorf("uploading %q to problem %s: no file record came back", payload.Name, problem.Id())
	}
	return &File{client: c, detail: *uploaded}, nil
}
