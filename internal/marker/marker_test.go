package marker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidSlug(t *testing.T) {
	t.Parallel()

	valid := []string{
		"3-allocator-5-small-memory-allocator",
		"0-intro-0-hello",
		"12-fs-3-ext2",
	}
	for _, slug := range valid {
		assert.True(t, ValidSlug(slug), "expected %q to be valid", slug)
	}

	invalid := []string{
		"",
		"allocator-5-small",
		"3-allocator",
		"3-Allocator-5-small",
		"3-allocator-5-",
		"3--5-small",
	}
	for _, slug := range invalid {
		assert.False(t, ValidSlug(slug), "expected %q to be invalid", slug)
	}
}

func TestScanLines_SingleSpan(t *testing.T) {
	t.Parallel()

	lines := []string{
		"fn alloc() {",
		"    // @begin-private(3-allocator-5-small-memory-allocator)",
		"    let block = freelist.pop();",
		"    block.split(size)",
		"    // @end-private(3-allocator-5-small-memory-allocator)",
		"}",
	}

	spans, err := ScanLines("ku/allocator.rs", lines)
	require.NoError(t, err)
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, "ku/allocator.rs", span.File)
	assert.Equal(t, "3-allocator-5-small-memory-allocator", span.Slug)
	assert.Equal(t, 2, span.BeginLine)
	assert.Equal(t, 5, span.EndLine)
	assert.Equal(t, "    //", span.Leader)
	assert.Equal(t, []string{"    let block = freelist.pop();", "    block.split(size)"}, span.Body)
}

func TestScanLines_MultipleSpansSameFile(t *testing.T) {
	t.Parallel()

	lines := []string{
		"# @begin-private(1-boot-1-gdt)",
		"lgdt",
		"# @end-private(1-boot-1-gdt)",
		"nop",
		"# @begin-private(1-boot-2-paging)",
		"mov cr3",
		"# @end-private(1-boot-2-paging)",
	}

	spans, err := ScanLines("boot.s", lines)
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.Equal(t, "1-boot-1-gdt", spans[0].Slug)
	assert.Equal(t, "1-boot-2-paging", spans[1].Slug)
}

func TestScanLines_Malformed(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		lines []string
		line  int
	}{
		{
			name: "unterminated begin",
			lines: []string{
				"// @begin-private(1-boot-1-gdt)",
				"code",
			},
			line: 1,
		},
		{
			name: "end without begin",
			lines: []string{
				"code",
				"// @end-private(1-boot-1-gdt)",
			},
			line: 2,
		},
		{
			name: "tag mismatch",
			lines: []string{
				"// @begin-private(1-boot-1-gdt)",
				"// @end-private(1-boot-2-paging)",
			},
			line: 2,
		},
		{
			name: "nested begin",
			lines: []string{
				"// @begin-private(1-boot-1-gdt)",
				"// @begin-private(1-boot-2-paging)",
			},
			line: 2,
		},
		{
			name: "invalid slug",
			lines: []string{
				"// @begin-private(not a slug)",
				"// @end-private(not a slug)",
			},
			line: 1,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ScanLines("f.rs", tc.lines)
			require.Error(t, err)

			var malformed *MalformedMarkerError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, "f.rs", malformed.File)
			assert.Equal(t, tc.line, malformed.Line)
		})
	}
}

func TestScanLines_NoMarkers(t *testing.T) {
	t.Parallel()

	spans, err := ScanLines("plain.rs", []string{"fn main() {}", ""})
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestScanLines_EmptyLeader(t *testing.T) {
	t.Parallel()

	lines := []string{
		"@begin-private(1-boot-1-gdt)",
		"x",
		"@end-private(1-boot-1-gdt)",
	}
	spans, err := ScanLines("raw.txt", lines)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "", spans[0].Leader)
}

func TestContainsToken(t *testing.T) {
	t.Parallel()

	assert.True(t, ContainsToken("  // @begin-private(1-boot-1-gdt)"))
	assert.True(t, ContainsToken("# @end-private(1-boot-1-gdt) trailing"))
	assert.False(t, ContainsToken("// begin-private without the at sign"))
	assert.False(t, ContainsToken("plain code"))
}
