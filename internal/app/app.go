// Package app wires the pipeline together: scan the tree, build the task
// registry and the prerequisite graph, then dispatch to the operation the
// invocation selected. Invocations share no state; everything is rebuilt
// from the tree on every run.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/labgate/internal/gatekeeper"
)

// App encapsulates the application's dependencies and lifecycle for a
// single invocation.
type App struct {
	outW   io.Writer
	logger *slog.Logger
}

// NewApp constructs the application. Results are written to outW; logs go
// to logW so piping the DOT or stat output stays clean.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	return &App{
		outW:   outW,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, logW),
	}
}

// SubmissionRejectedError is returned when one or more checks failed. It
// is a data-carrying outcome, distinct from structural pipeline errors, so
// batch callers can report every reason at once.
type SubmissionRejectedError struct {
	Results []*gatekeeper.CheckResult
}

func (e *SubmissionRejectedError) Error() string {
	failed := 0
	for _, r := range e.Results {
		if !r.Passed {
			failed++
		}
	}
	return fmt.Sprintf("submission rejected: %d check(s) failed", failed)
}
