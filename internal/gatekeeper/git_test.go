package gatekeeper

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	repo := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = repo
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	run("init", "--initial-branch=main")
	require.NoError(t, os.WriteFile(filepath.Join(repo, "f.txt"), []byte("x\n"), 0o644))
	run("add", ".")
	run("commit", "-m", "initial")
	run("branch", "submit/1-boot-1-gdt")
	return repo
}

func TestGitCLI_HasBranch(t *testing.T) {
	t.Parallel()

	repo := initRepo(t)
	git := GitCLI{}
	ctx := context.Background()

	ok, err := git.HasBranch(ctx, repo, "submit/1-boot-1-gdt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = git.HasBranch(ctx, repo, "submit/9-ghost-1-task")
	require.NoError(t, err)
	assert.False(t, ok)
}
