// Package errors carries failures from subcommand tasks to the console.
//
// Tasks wrap what went wrong in a CUIError. Its summary prints on every
// failure, the rest only when the user passed --verbose.
package errors

import (
	"strings"
)

// Verbose is implemented by errors that can explain themselves beyond
// a one-line summary.
type Verbose interface {
	Verbose() string
}

// CUIError is a console-facing error. Error returns the terse summary,
// Verbose the summary plus any detail and the chain of causes.
type CUIError interface {
	error
	Verbose
}

// Option configures the CUIError built by New.
type Option func(*consoleError)

// New builds a CUIError whose Error text is summary.
func New(summary string, options ...Option) CUIError {
	ce := &consoleError{summary: summary}
	for _, opt := range options {
		opt(ce)
	}
	return ce
}

// WithDetail appends an explanation shown only by Verbose.
func WithDetail(detail string) Option {
	return func(ce *consoleError) { ce.detail = detail }
}

// WithCause records err as the reason behind the summary. It joins the
// Verbose rendition and is reachable through errors.Unwrap.
func WithCause(err error) Option {
	return func(ce *consoleError) { ce.cause = err }
}

type consoleError struct {
	summary string
	detail  string
	cause   error
}

func (ce *consoleError) Error() string {
	return ce.summary
}

func (ce *consoleError) Unwrap() error {
	return ce.cause
}

func (ce *consoleError) Verbose() string {
	lines := []string{ce.summary}
	if ce.detail != "" {
		lines = append(lines, ce.detail)
	}
	if ce.cause != nil {
		rendered := ce.cause.Error()
		if v, ok := ce.cause.(Verbose); ok {
			rendered = v.Verbose()
		}
		lines = append(lines, "caused by: "+rendered)
	}
	return strings.Join(lines, "\n")
}
