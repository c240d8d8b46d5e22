package rest

import (
	"io"
	"sync/atomic"

	"github.com/veloxq/veloxq-api-types/problems"
)

// Progress reports an upload running in the background.
//
// Sent is closed once the whole payload is on the wire, Done once the
// server has answered. After Done, Result holds the server's answer
// unless Error reports why there is none.
type Progress[T any] interface {
	// TotalSize returns the declared size of the payload in bytes.
	TotalSize() int64

	// TransferredSize returns how many bytes went out so far.
	//
	// It grows while the upload runs.
	TransferredSize() int64

	// Error returns the error that stopped the upload. It is nil while
	// the upload is running and after it succeeded.
	Error() error

	// Result returns the server's answer. The bool is false until the
	// upload has finished successfully.
	Result() (T, bool)

	// Done returns a channel closed when the upload is over, successfully
	// or not.
	Done() <-chan struct{}

	// Sent returns a channel closed when the last byte of the payload has
	// been handed to the transport.
	Sent() <-chan struct{}
}

type progress struct {
	total      int64
	transferred atomic.Int64
	e          error
	result     *problems.File
	resultOk   bool
	done       chan struct{}
	sent       chan struct{}
}

func (p *progress) TotalSize() int64 {
	return p.total
}

func (p *progress) TransferredSize() int64 {
	return p.transferred.Load()
}

func (p *progress) Error() error {
	return p.e
}

func (p *progress) Result() (*problems.File, bool) {
	return p.result, p.resultOk
}

func (p *progress) Done() <-chan struct{} {
	return p.done
}

func (p *progress) Sent() <-chan struct{} {
	return p.sent
}

// meteredReader counts bytes read through it.
type meteredReader struct {
	r io.Reader
	n *atomic.Int64
}

func (m meteredReader) Read(b []byte) (int, error) {
	n, err := m.r.Read(b)
	m.n.Add(int64(n))
	return n, err
}
