// Package registry aggregates scanned spans into the flat task table and
// groups tasks into ordered labs.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/labgate/internal/course"
	"github.com/vk/labgate/internal/ctxlog"
	"github.com/vk/labgate/internal/marker"
)

// Task is the smallest curriculum unit. Its identity is the slug; Spans are
// every private region tagged with that slug across the whole tree, in
// path-sorted file order.
type Task struct {
	Slug  string
	Lab   string
	Spans []marker.Span
}

// Files returns the distinct files touched by the task's spans, in the
// order they were first observed.
func (t *Task) Files() []string {
	var files []string
	seen := make(map[string]bool)
	for _, s := range t.Spans {
		if !seen[s.File] {
			seen[s.File] = true
			files = append(files, s.File)
		}
	}
	return files
}

// Lab is an ordered group of tasks sharing a slug prefix. Order drives the
// implicit prerequisite chain.
type Lab struct {
	Slug  string
	Tasks []string
}

// Registry is the task table and lab grouping for one tree state.
type Registry struct {
	Tasks map[string]*Task
	// Labs preserve the order in which each lab was first observed during
	// the deterministic, path-sorted traversal.
	Labs []*Lab

	labIndex map[string]*Lab
}

// DuplicateTaskSlugError reports a slug registered under two incompatible
// lab prefixes.
type DuplicateTaskSlugError struct {
	Slug string
	Labs [2]string
}

func (e *DuplicateTaskSlugError) Error() string {
	return fmt.Sprintf("duplicate task slug %q: registered under lab %q and lab %q", e.Slug, e.Labs[0], e.Labs[1])
}

// LabPrefix derives the owning lab from a task slug by the fixed naming
// convention: the leading "<number>-<word>" pair.
func LabPrefix(slug string) string {
	parts := strings.SplitN(slug, "-", 3)
	if len(parts) < 3 {
		return slug
	}
	return parts[0] + "-" + parts[1]
}

// Build aggregates spans into tasks and labs. Declared lab membership wins
// over the naming convention, and declared task order wins over scan order;
// a slug whose derived prefix conflicts with its declared lab fails with
// DuplicateTaskSlug, as does any other lab disagreement for one slug.
func Build(ctx context.Context, spans marker.Spans, decls *course.Declarations) (*Registry, error) {
	logger := ctxlog.FromContext(ctx)

	r := &Registry{
		Tasks:    make(map[string]*Task),
		labIndex: make(map[string]*Lab),
	}

	// Declared labs come first, in declaration order, so curriculum authors
	// control the manifest layout of anything they list explicitly.
	for _, labDecl := range decls.Labs {
		for _, slug := range labDecl.Tasks {
			if derived := LabPrefix(slug); derived != labDecl.Slug {
				return nil, &DuplicateTaskSlugError{Slug: slug, Labs: [2]string{derived, labDecl.Slug}}
			}
			if err := r.register(slug, labDecl.Slug); err != nil {
				return nil, err
			}
		}
	}

	for _, file := range spans.Files() {
		for _, span := range spans[file] {
			lab := LabPrefix(span.Slug)
			if declared, ok := decls.LabOf(span.Slug); ok {
				lab = declared
			}
			if err := r.register(span.Slug, lab); err != nil {
				return nil, err
			}
			task := r.Tasks[span.Slug]
			task.Spans = append(task.Spans, span)
		}
	}

	logger.Debug("Registry built.", "tasks", len(r.Tasks), "labs", len(r.Labs))
	return r, nil
}

// register creates the task and its lab on first sight and verifies lab
// consistency on every later sight.
func (r *Registry) register(slug, lab string) error {
	if existing, ok := r.Tasks[slug]; ok {
		if existing.Lab != lab {
			return &DuplicateTaskSlugError{Slug: slug, Labs: [2]string{existing.Lab, lab}}
		}
		return nil
	}
	r.Tasks[slug] = &Task{Slug: slug, Lab: lab}

	l, ok := r.labIndex[lab]
	if !ok {
		l = &Lab{Slug: lab}
		r.labIndex[lab] = l
		r.Labs = append(r.Labs, l)
	}
	l.Tasks = append(l.Tasks, slug)
	return nil
}

// LabOf returns the lab grouping a task belongs to.
func (r *Registry) LabOf(slug string) (*Lab, bool) {
	task, ok := r.Tasks[slug]
	if !ok {
		return nil, false
	}
	lab, ok := r.labIndex[task.Lab]
	return lab, ok
}

// Lab returns a lab by slug.
func (r *Registry) Lab(slug string) (*Lab, bool) {
	lab, ok := r.labIndex[slug]
	return lab, ok
}

// SortedSlugs returns every task slug in lexicographic order.
func (r *Registry) SortedSlugs() []string {
	slugs := make([]string, 0, len(r.Tasks))
	for slug := range r.Tasks {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// SpanCount returns the total number of spans across all tasks.
func (r *Registry) SpanCount() int {
	n := 0
	for _, t := range r.Tasks {
		n += len(t.Spans)
	}
	return n
}
