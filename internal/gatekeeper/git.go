package gatekeeper

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Git answers version-control questions about a checked-out repository.
// The core never manages version-control storage itself.
type Git interface {
	// HasBranch reports whether the named local branch exists in repo.
	HasBranch(ctx context.Context, repo, branch string) (bool, error)
}

// GitCLI shells out to the git binary, like the rest of the CI tooling
// around this core.
type GitCLI struct{}

func (GitCLI) HasBranch(ctx context.Context, repo, branch string) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	cmd.Dir = repo
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// rev-parse --quiet exits non-zero for unknown refs.
			return false, nil
		}
		return false, fmt.Errorf("git rev-parse in %s: %w: %s", repo, err, stderr.String())
	}
	return true, nil
}
