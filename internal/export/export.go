// Package export renders the prerequisite graph in Graphviz DOT. Output is
// deterministic for a fixed tree: nodes sorted by slug, edges by
// (from, to), so documentation builds and curriculum-review diffs are
// byte-stable.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/labgate/internal/dag"
	"github.com/vk/labgate/internal/registry"
)

// All renders the full graph.
func All(g *dag.Graph) string {
	return render("tasks", g.Nodes(), g.Edges())
}

// Group renders the subgraph induced by one lab: only the lab's tasks, and
// only edges with both endpoints inside the lab.
func Group(g *dag.Graph, lab *registry.Lab) string {
	member := make(map[string]bool, len(lab.Tasks))
	nodes := make([]string, 0, len(lab.Tasks))
	for _, slug := range lab.Tasks {
		member[slug] = true
		nodes = append(nodes, slug)
	}
	sort.Strings(nodes)

	var edges []dag.Edge
	for _, e := range g.Edges() {
		if member[e.From] && member[e.To] {
			edges = append(edges, e)
		}
	}
	return render(lab.Slug, nodes, edges)
}

func render(name string, nodes []string, edges []dag.Edge) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", name)
	b.WriteString("\trankdir = RL;\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "\t%q;\n", n)
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "\t%q -> %q;\n", e.From, e.To)
	}
	b.WriteString("}\n")
	return b.String()
}
