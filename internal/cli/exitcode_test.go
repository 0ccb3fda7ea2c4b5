package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vk/labgate/internal/app"
	"github.com/vk/labgate/internal/compose"
	"github.com/vk/labgate/internal/dag"
	"github.com/vk/labgate/internal/gatekeeper"
	"github.com/vk/labgate/internal/marker"
	"github.com/vk/labgate/internal/registry"
)

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"nil-adjacent internal", errors.New("boom"), CodeInternal},
		{"usage", &ExitError{Code: CodeUsage, Message: "bad flag"}, CodeUsage},
		{"malformed marker", &marker.MalformedMarkerError{File: "a.rs", Line: 3}, CodeMalformedMarker},
		{"duplicate slug", &registry.DuplicateTaskSlugError{Slug: "1-boot-1-gdt"}, CodeDuplicateTaskSlug},
		{"cycle", &dag.CyclicDependencyError{Cycle: []string{"a", "b", "a"}}, CodeCyclicDependency},
		{"path not found", &compose.PathNotFoundError{Path: "nope"}, CodeIO},
		{"io", &compose.IOError{Op: "write", Path: "x"}, CodeIO},
		{"branch not found", &gatekeeper.BranchNotFoundError{Branch: "submit/x"}, CodeBranchNotFound},
		{
			"unreadable file during scan",
			&fs.PathError{Op: "open", Path: "src/boot.rs", Err: fs.ErrPermission},
			CodeIO,
		},
		{"rejected", &app.SubmissionRejectedError{}, CodeRejected},
		{
			"wrapped typed error",
			fmt.Errorf("pipeline: %w", &marker.MalformedMarkerError{File: "a.rs", Line: 1}),
			CodeMalformedMarker,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ExitCodeFor(tc.err))
		})
	}
}
