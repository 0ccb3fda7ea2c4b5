// Package course loads the explicit curriculum declarations: versioned
// .hcl files that may pin lab membership and task order, and declare
// cross-lab or skip-ahead dependency edges on top of the implicit
// previous-task-in-lab chain.
package course

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/labgate/internal/ctxlog"
	"github.com/vk/labgate/internal/fsutil"
	"github.com/vk/labgate/internal/marker"
)

// SupportedVersion is the declaration format version this build understands.
// The version attribute is mandatory so the format can evolve without
// silently misreading older trees.
const SupportedVersion = 1

var labSlugRe = regexp.MustCompile(`^\d+-[a-z][a-z0-9]*$`)

// Edge declares that From may only be submitted once To has been accepted.
type Edge struct {
	From string
	To   string
}

// LabDecl pins a lab's task list and order. Scanned tasks not listed here
// keep their first-observed order after the declared ones.
type LabDecl struct {
	Slug  string
	Tasks []string
}

// Declarations is the merged content of every declaration file in the tree.
type Declarations struct {
	Labs  []LabDecl
	Edges []Edge
}

// LabOf returns the declared lab for a task slug, if any.
func (d *Declarations) LabOf(slug string) (string, bool) {
	for _, lab := range d.Labs {
		for _, t := range lab.Tasks {
			if t == slug {
				return lab.Slug, true
			}
		}
	}
	return "", false
}

type labBlock struct {
	Slug  string   `hcl:"slug,label"`
	Tasks []string `hcl:"tasks,optional"`
}

type dependencyBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// fileRoot decodes the top-level blocks of a declaration file. Version is
// kept as a raw expression so it can be range-checked before anything else
// is interpreted.
type fileRoot struct {
	Version      hcl.Expression     `hcl:"version"`
	Labs         []*labBlock        `hcl:"lab,block"`
	Dependencies []*dependencyBlock `hcl:"dependency,block"`
	Remain       hcl.Body           `hcl:",remain"`
}

// Load discovers every .hcl file under root outside the spare paths and
// merges their declarations. A tree without declaration files is valid and
// yields an empty set.
func Load(ctx context.Context, root string, spare []string) (*Declarations, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(root, ".hcl")
	if err != nil {
		return nil, err
	}

	decls := &Declarations{}
	parser := hclparse.NewParser()

	for _, rel := range files {
		if fsutil.UnderAny(rel, spare) {
			continue
		}
		file := filepath.Join(root, filepath.FromSlash(rel))

		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse declaration file %s: %w", rel, diags)
		}
		var fileContent fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &fileContent); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode declaration file %s: %w", rel, diags)
		}
		if err := checkVersion(fileContent.Version, rel); err != nil {
			return nil, err
		}

		for _, lab := range fileContent.Labs {
			if !labSlugRe.MatchString(lab.Slug) {
				return nil, fmt.Errorf("declaration file %s: invalid lab slug %q", rel, lab.Slug)
			}
			for _, task := range lab.Tasks {
				if !marker.ValidSlug(task) {
					return nil, fmt.Errorf("declaration file %s: invalid task slug %q in lab %q", rel, task, lab.Slug)
				}
			}
			decls.Labs = append(decls.Labs, LabDecl{Slug: lab.Slug, Tasks: lab.Tasks})
		}
		for _, dep := range fileContent.Dependencies {
			if !marker.ValidSlug(dep.From) || !marker.ValidSlug(dep.To) {
				return nil, fmt.Errorf("declaration file %s: invalid task slug in dependency %q -> %q", rel, dep.From, dep.To)
			}
			decls.Edges = append(decls.Edges, Edge{From: dep.From, To: dep.To})
		}
		logger.Debug("Loaded declaration file.", "file", rel, "labs", len(fileContent.Labs), "dependencies", len(fileContent.Dependencies))
	}

	return decls, nil
}

// checkVersion evaluates the version attribute and rejects anything but a
// whole number equal to SupportedVersion.
func checkVersion(expr hcl.Expression, rel string) error {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return fmt.Errorf("declaration file %s: cannot evaluate version: %w", rel, diags)
	}
	if val.Type() != cty.Number {
		return fmt.Errorf("declaration file %s: version must be a number, got %s", rel, val.Type().FriendlyName())
	}
	var version int
	if err := gocty.FromCtyValue(val, &version); err != nil {
		return fmt.Errorf("declaration file %s: invalid version: %w", rel, err)
	}
	if version != SupportedVersion {
		return fmt.Errorf("declaration file %s: unsupported declaration version %d (supported: %d)", rel, version, SupportedVersion)
	}
	return nil
}
