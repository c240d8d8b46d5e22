// Package logger builds the loggers handed to subcommand tasks.
package logger

import (
	"io"
	"log"
)

// Null returns a logger that swallows everything. Tests run tasks with
// it to keep output quiet.
func Null() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// Default returns the process-wide logger.
func Default() *log.Logger {
	return log.Default()
}
