package registry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/labgate/internal/course"
	"github.com/vk/labgate/internal/ctxlog"
	"github.com/vk/labgate/internal/marker"
)

func testContext() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func span(file, slug string) marker.Span {
	return marker.Span{File: file, Slug: slug, BeginLine: 1, EndLine: 3}
}

func TestLabPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "3-allocator", LabPrefix("3-allocator-5-small-memory-allocator"))
	assert.Equal(t, "1-boot", LabPrefix("1-boot-1-gdt"))
	assert.Equal(t, "1-boot", LabPrefix("1-boot"))
}

func TestBuild_GroupsTasksIntoLabs(t *testing.T) {
	t.Parallel()

	spans := marker.Spans{
		"a.rs": {span("a.rs", "1-boot-1-gdt"), span("a.rs", "2-mm-1-frames")},
		"b.rs": {span("b.rs", "1-boot-2-paging"), span("b.rs", "1-boot-1-gdt")},
	}

	reg, err := Build(testContext(), spans, &course.Declarations{})
	require.NoError(t, err)

	require.Len(t, reg.Tasks, 3)
	assert.Equal(t, []string{"1-boot-1-gdt", "1-boot-2-paging", "2-mm-1-frames"}, reg.SortedSlugs())

	gdt := reg.Tasks["1-boot-1-gdt"]
	assert.Equal(t, "1-boot", gdt.Lab)
	assert.Equal(t, []string{"a.rs", "b.rs"}, gdt.Files())
	require.Len(t, gdt.Spans, 2)

	require.Len(t, reg.Labs, 2)
	assert.Equal(t, "1-boot", reg.Labs[0].Slug)
	assert.Equal(t, []string{"1-boot-1-gdt", "1-boot-2-paging"}, reg.Labs[0].Tasks)
	assert.Equal(t, "2-mm", reg.Labs[1].Slug)

	assert.Equal(t, 4, reg.SpanCount())
}

func TestBuild_DeclaredOrderWins(t *testing.T) {
	t.Parallel()

	// Scan order would put 1-boot-1-gdt first; the declaration pins the
	// reverse.
	spans := marker.Spans{
		"a.rs": {span("a.rs", "1-boot-1-gdt")},
		"b.rs": {span("b.rs", "1-boot-2-paging")},
	}
	decls := &course.Declarations{
		Labs: []course.LabDecl{
			{Slug: "1-boot", Tasks: []string{"1-boot-2-paging", "1-boot-1-gdt"}},
		},
	}

	reg, err := Build(testContext(), spans, decls)
	require.NoError(t, err)

	lab, ok := reg.Lab("1-boot")
	require.True(t, ok)
	assert.Equal(t, []string{"1-boot-2-paging", "1-boot-1-gdt"}, lab.Tasks)
}

func TestBuild_DuplicateTaskSlug(t *testing.T) {
	t.Parallel()

	// A declared lab that disagrees with the slug's own prefix is the one
	// way a single slug can claim two labs.
	spans := marker.Spans{
		"a.rs": {span("a.rs", "1-boot-1-gdt")},
	}
	decls := &course.Declarations{
		Labs: []course.LabDecl{
			{Slug: "2-mm", Tasks: []string{"1-boot-1-gdt"}},
		},
	}

	_, err := Build(testContext(), spans, decls)
	require.Error(t, err)

	var dup *DuplicateTaskSlugError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "1-boot-1-gdt", dup.Slug)
	assert.Equal(t, [2]string{"1-boot", "2-mm"}, dup.Labs)
}

func TestBuild_SameSlugTwiceInOneLabIsFine(t *testing.T) {
	t.Parallel()

	// The same slug showing up in many files is the normal multi-file task
	// case, not a duplicate.
	spans := marker.Spans{
		"a.rs": {span("a.rs", "1-boot-1-gdt")},
		"b.rs": {span("b.rs", "1-boot-1-gdt")},
	}

	reg, err := Build(testContext(), spans, &course.Declarations{})
	require.NoError(t, err)
	require.Len(t, reg.Tasks, 1)
	assert.Len(t, reg.Tasks["1-boot-1-gdt"].Spans, 2)
}

func TestLabOf(t *testing.T) {
	t.Parallel()

	spans := marker.Spans{
		"a.rs": {span("a.rs", "1-boot-1-gdt")},
	}
	reg, err := Build(testContext(), spans, &course.Declarations{})
	require.NoError(t, err)

	lab, ok := reg.LabOf("1-boot-1-gdt")
	require.True(t, ok)
	assert.Equal(t, "1-boot", lab.Slug)

	_, ok = reg.LabOf("9-nope-1-missing")
	assert.False(t, ok)
}
