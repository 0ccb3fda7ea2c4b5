package cli

import (
	"errors"
	"io/fs"

	"github.com/vk/labgate/internal/app"
	"github.com/vk/labgate/internal/compose"
	"github.com/vk/labgate/internal/dag"
	"github.com/vk/labgate/internal/gatekeeper"
	"github.com/vk/labgate/internal/marker"
	"github.com/vk/labgate/internal/registry"
)

// Exit codes. Each structural failure class gets its own code so CI can
// tell "submission rejected" apart from "tool misconfigured".
const (
	CodeInternal          = 1
	CodeUsage             = 2
	CodeMalformedMarker   = 3
	CodeDuplicateTaskSlug = 4
	CodeCyclicDependency  = 5
	CodeIO                = 6
	CodeBranchNotFound    = 7
	CodeRejected          = 8
)

// ExitCodeFor maps an error from the pipeline to its process exit code.
func ExitCodeFor(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var malformed *marker.MalformedMarkerError
	if errors.As(err, &malformed) {
		return CodeMalformedMarker
	}
	var duplicate *registry.DuplicateTaskSlugError
	if errors.As(err, &duplicate) {
		return CodeDuplicateTaskSlug
	}
	var cyclic *dag.CyclicDependencyError
	if errors.As(err, &cyclic) {
		return CodeCyclicDependency
	}
	var notFound *compose.PathNotFoundError
	if errors.As(err, &notFound) {
		return CodeIO
	}
	var ioErr *compose.IOError
	if errors.As(err, &ioErr) {
		return CodeIO
	}
	// Unreadable files surface from the scan and walk paths as bare
	// fs.PathErrors.
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return CodeIO
	}
	var branch *gatekeeper.BranchNotFoundError
	if errors.As(err, &branch) {
		return CodeBranchNotFound
	}
	var rejected *app.SubmissionRejectedError
	if errors.As(err, &rejected) {
		return CodeRejected
	}
	return CodeInternal
}
