package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(rel+"\n"), 0o644))
	}
}

func TestListFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, "z.txt", "a/b.txt", "a/a.txt", "m.txt")

	files, err := ListFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/a.txt", "a/b.txt", "m.txt", "z.txt"}, files)
}

func TestListFiles_EmptyDir(t *testing.T) {
	t.Parallel()

	files, err := ListFiles(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFindFilesByExtension(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, "course.hcl", "labs/extra.hcl", "src/main.rs")

	files, err := FindFilesByExtension(root, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{"course.hcl", "labs/extra.hcl"}, files)
}

func TestUnderAny(t *testing.T) {
	t.Parallel()

	prefixes := []string{"vendor", "docs/internal"}

	assert.True(t, UnderAny("vendor", prefixes))
	assert.True(t, UnderAny("vendor/lib.rs", prefixes))
	assert.True(t, UnderAny("docs/internal/notes.md", prefixes))
	assert.False(t, UnderAny("vendored/lib.rs", prefixes), "prefix match is per path component")
	assert.False(t, UnderAny("docs/public.md", prefixes))
	assert.False(t, UnderAny("src/main.rs", nil))
}

func TestCopyFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "src.sh")
	require.NoError(t, os.WriteFile(src, []byte("#!/bin/sh\n"), 0o755))

	dst := filepath.Join(root, "nested", "dir", "dst.sh")
	require.NoError(t, CopyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\n", string(data))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestWriteFileAt(t *testing.T) {
	t.Parallel()

	dst := filepath.Join(t.TempDir(), "deep", "file.txt")
	require.NoError(t, WriteFileAt(dst, []byte("data\n"), 0o600))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "data\n", string(data))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
