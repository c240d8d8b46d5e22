package io

import (
	"io"
	"sync"
)

// TriggerReader is an io.Reader that announces the end of the stream.
type TriggerReader interface {
	io.Reader

	// OnEnd registers f to run once, when reading first hits io.EOF.
	// Registered after that point, f runs immediately.
	OnEnd(f func())
}

// NewTriggerReader wraps base so OnEnd callbacks fire when it is
// drained.
func NewTriggerReader(base io.Reader) TriggerReader {
	return &triggerReader{src: base}
}

type triggerReader struct {
	src   io.Reader
	mu    sync.Mutex
	done  bool
	hooks []func()
}

func (t *triggerReader) Read(p []byte) (int, error) {
	n, err := t.src.Read(p)
	if err == io.EOF {
		t.fire()
	}
	return n, err
}

func (t *triggerReader) fire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	for _, f := range t.hooks {
		f()
	}
	t.hooks = nil
}

func (t *triggerReader) OnEnd(f func()) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		f()
		return
	}
	t.hooks = append(t.hooks, f)
	t.mu.Unlock()
}
