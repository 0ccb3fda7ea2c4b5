package app

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/vk/labgate/internal/gatekeeper"
	"github.com/vk/labgate/internal/marker"
	"github.com/vk/labgate/internal/registry"
)

var (
	passLabel = color.New(color.FgGreen, color.Bold).SprintFunc()
	failLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	statLabel = color.New(color.Bold).SprintFunc()
)

// printResult reports one check outcome, listing every reason — never just
// the first — so a student sees the complete picture in one run.
func (a *App) printResult(result *gatekeeper.CheckResult) {
	if result.Passed {
		fmt.Fprintf(a.outW, "%s %s (branch %s, user %s)\n", passLabel("PASS"), result.Task, result.Branch, result.UserID)
		return
	}
	fmt.Fprintf(a.outW, "%s %s (branch %s, user %s)\n", failLabel("FAIL"), result.Task, result.Branch, result.UserID)
	for _, reason := range result.Reasons {
		fmt.Fprintf(a.outW, "  - %s\n", reason)
		if reason.Diff != "" {
			fmt.Fprint(a.outW, reason.Diff)
		}
	}
}

// printStat prints the summary counts without writing any output tree.
func (a *App) printStat(reg *registry.Registry, spans marker.Spans) {
	fmt.Fprintf(a.outW, "%s %d\n", statLabel("tasks:"), len(reg.Tasks))
	fmt.Fprintf(a.outW, "%s  %d\n", statLabel("labs:"), len(reg.Labs))
	fmt.Fprintf(a.outW, "%s %d\n", statLabel("spans:"), spans.Count())
	for _, lab := range reg.Labs {
		fmt.Fprintf(a.outW, "  %s: %d task(s)\n", lab.Slug, len(lab.Tasks))
	}
}
