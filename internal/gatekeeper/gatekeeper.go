// Package gatekeeper verifies a student's submitted branch: the submitted
// content must occupy exactly where the original solution's private spans
// were, and every prerequisite task must already be accepted for the user.
// Deeper correctness is delegated to an external test runner; a Fail here
// is a data result, not an abort.
package gatekeeper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/labgate/internal/ctxlog"
	"github.com/vk/labgate/internal/dag"
	"github.com/vk/labgate/internal/history"
	"github.com/vk/labgate/internal/marker"
	"github.com/vk/labgate/internal/registry"
)

// ReasonKind classifies why a submission was rejected.
type ReasonKind string

const (
	ReasonUnknownTask         ReasonKind = "unknown_task"
	ReasonBranchMissing       ReasonKind = "branch_missing"
	ReasonFileMissing         ReasonKind = "file_missing"
	ReasonMarkerLeftover      ReasonKind = "marker_leftover"
	ReasonEmptySolution       ReasonKind = "empty_solution"
	ReasonShapeMismatch       ReasonKind = "shape_mismatch"
	ReasonMissingPrerequisite ReasonKind = "missing_prerequisite"
)

// Reason is one structured rejection cause. Missing carries the full set
// of unmet prerequisites, never just the first; Diff carries a unified
// diff against the expected stubbed file for shape mismatches.
type Reason struct {
	Kind    ReasonKind
	File    string
	Detail  string
	Missing []string
	Diff    string
}

func (r Reason) String() string {
	switch r.Kind {
	case ReasonMissingPrerequisite:
		return fmt.Sprintf("missing prerequisites: %s", strings.Join(r.Missing, ", "))
	default:
		if r.File != "" {
			return fmt.Sprintf("%s: %s", r.File, r.Detail)
		}
		return r.Detail
	}
}

// CheckResult is the outcome of checking one submission.
type CheckResult struct {
	Task    string
	Branch  string
	UserID  string
	Passed  bool
	Reasons []Reason
}

// BranchNotFoundError reports a submission branch absent from the student
// repository.
type BranchNotFoundError struct {
	Repo   string
	Branch string
}

func (e *BranchNotFoundError) Error() string {
	return fmt.Sprintf("branch %q not found in %s", e.Branch, e.Repo)
}

// Options toggles the optional parts of a check.
type Options struct {
	// NoPrerequisitesCheck skips the curriculum-order eligibility check.
	NoPrerequisitesCheck bool
	// DryRun performs every check but never records acceptance.
	DryRun bool
}

// Request describes one submission to check.
type Request struct {
	StudentRepo  string
	OriginalRepo string
	Branch       string
	UserID       string
	Options      Options
}

// Gatekeeper checks submissions against the solution tree, the
// prerequisite graph, and the submission history.
type Gatekeeper struct {
	reg   *registry.Registry
	graph *dag.Graph
	// spans is the full scan of the solution tree, keyed by file. The
	// content check needs every file's spans, not just the checked task's:
	// other tasks' regions are legitimate holes in the student's file.
	spans        marker.Spans
	store        history.Store
	git          Git
	branchPrefix string
}

// New assembles a gatekeeper. branchPrefix is the fixed submission-branch
// prefix, e.g. "submit/".
func New(reg *registry.Registry, graph *dag.Graph, spans marker.Spans, store history.Store, git Git, branchPrefix string) *Gatekeeper {
	return &Gatekeeper{reg: reg, graph: graph, spans: spans, store: store, git: git, branchPrefix: branchPrefix}
}

// TaskFromBranch resolves a submission branch name to a task slug: the
// portion after the last path separator.
func TaskFromBranch(branch string) string {
	if i := strings.LastIndex(branch, "/"); i >= 0 {
		return branch[i+1:]
	}
	return branch
}

// BranchFor formats the submission branch name for a task.
func (g *Gatekeeper) BranchFor(task string) string {
	return g.branchPrefix + task
}

// Check runs the full verification for one submission. A Fail outcome is
// returned as a result, not an error; errors mean the check itself could
// not run (missing branch, unreadable tree, broken history store).
func (g *Gatekeeper) Check(ctx context.Context, req Request) (*CheckResult, error) {
	logger := ctxlog.FromContext(ctx).With("branch", req.Branch, "user", req.UserID)

	slug := TaskFromBranch(req.Branch)
	result := &CheckResult{Task: slug, Branch: req.Branch, UserID: req.UserID}

	exists, err := g.git.HasBranch(ctx, req.StudentRepo, req.Branch)
	if err != nil {
		return nil, fmt.Errorf("resolve branch %q: %w", req.Branch, err)
	}
	if !exists {
		return nil, &BranchNotFoundError{Repo: req.StudentRepo, Branch: req.Branch}
	}

	task, ok := g.reg.Tasks[slug]
	if !ok {
		result.Reasons = append(result.Reasons, Reason{
			Kind:   ReasonUnknownTask,
			Detail: fmt.Sprintf("branch names unknown task %q", slug),
		})
		return result, nil
	}

	contentReasons, err := g.checkContent(ctx, req.StudentRepo, req.OriginalRepo, task)
	if err != nil {
		return nil, err
	}
	result.Reasons = append(result.Reasons, contentReasons...)

	if !req.Options.NoPrerequisitesCheck {
		missing, err := g.missingPrerequisites(ctx, req.UserID, slug)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			result.Reasons = append(result.Reasons, Reason{
				Kind:    ReasonMissingPrerequisite,
				Missing: missing,
			})
		}
	}

	result.Passed = len(result.Reasons) == 0
	if result.Passed && !req.Options.DryRun {
		rec := &history.Record{
			UserID:   req.UserID,
			Task:     slug,
			Branch:   req.Branch,
			Accepted: true,
		}
		if err := g.store.Append(ctx, rec); err != nil {
			return nil, fmt.Errorf("record acceptance: %w", err)
		}
		logger.Debug("Acceptance recorded.", "task", slug)
	}
	logger.Debug("Check finished.", "task", slug, "passed", result.Passed, "reasons", len(result.Reasons))
	return result, nil
}

// missingPrerequisites returns every direct prerequisite of the task that
// lacks an accepted record for the user, sorted.
func (g *Gatekeeper) missingPrerequisites(ctx context.Context, userID, slug string) ([]string, error) {
	prereqs, err := g.graph.PrerequisitesOf(slug)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, prereq := range prereqs {
		accepted, err := g.store.Accepted(ctx, userID, prereq)
		if err != nil {
			return nil, fmt.Errorf("query history for %s: %w", prereq, err)
		}
		if !accepted {
			missing = append(missing, prereq)
		}
	}
	return missing, nil
}

// CheckAll verifies every task that owns spans, in topological order, so a
// batch caller can choose fail-fast or collect-all semantics. A missing
// submission branch becomes a Fail reason here instead of an error.
func (g *Gatekeeper) CheckAll(ctx context.Context, studentRepo, originalRepo, userID string, opts Options) ([]*CheckResult, error) {
	var results []*CheckResult
	for _, slug := range g.graph.TopoOrder() {
		task := g.reg.Tasks[slug]
		if task == nil || len(task.Spans) == 0 {
			continue
		}
		req := Request{
			StudentRepo:  studentRepo,
			OriginalRepo: originalRepo,
			Branch:       g.BranchFor(slug),
			UserID:       userID,
			Options:      opts,
		}
		result, err := g.Check(ctx, req)
		if err != nil {
			var notFound *BranchNotFoundError
			if errors.As(err, &notFound) {
				results = append(results, &CheckResult{
					Task:   slug,
					Branch: req.Branch,
					UserID: userID,
					Reasons: []Reason{{
						Kind:   ReasonBranchMissing,
						Detail: notFound.Error(),
					}},
				})
				continue
			}
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}
