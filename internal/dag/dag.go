// Package dag builds and queries the acyclic prerequisite graph over
// tasks. Edges point from a task to the tasks it requires.
package dag

import (
	"fmt"
	"sort"
	"strings"
)

// Graph is the validated prerequisite DAG. It is immutable after Build.
type Graph struct {
	nodes map[string]*node
	// order is the stable topological ordering computed at build time:
	// prerequisites first, ties broken by slug.
	order []string
}

type node struct {
	id string
	// deps are the direct prerequisites of this node.
	deps map[string]*node
	// dependents are the nodes that require this one.
	dependents map[string]*node
}

// Edge is a single "From requires To" relation.
type Edge struct {
	From string
	To   string
}

// CyclicDependencyError carries the offending cycle, listed in dependency
// direction with the first task repeated at the end.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Cycle, " -> "))
}

func newGraph() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

func (g *Graph) addNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// addEdge records that from requires to. Both nodes must exist.
func (g *Graph) addEdge(from, to string) error {
	if from == to {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", from, to)
	}
	fromNode, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("unknown task in dependency: %s", from)
	}
	toNode, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("unknown task in dependency: %s", to)
	}
	fromNode.deps[to] = toNode
	toNode.dependents[from] = fromNode
	return nil
}

// Has reports whether the graph contains the task.
func (g *Graph) Has(slug string) bool {
	_, ok := g.nodes[slug]
	return ok
}

// Nodes returns every task slug, sorted.
func (g *Graph) Nodes() []string {
	slugs := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		slugs = append(slugs, id)
	}
	sort.Strings(slugs)
	return slugs
}

// Edges returns every edge ordered by (From, To).
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, n := range g.nodes {
		for dep := range n.deps {
			edges = append(edges, Edge{From: n.id, To: dep})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// PrerequisitesOf returns the direct prerequisites of a task, sorted.
func (g *Graph) PrerequisitesOf(slug string) ([]string, error) {
	n, ok := g.nodes[slug]
	if !ok {
		return nil, fmt.Errorf("unknown task: %s", slug)
	}
	deps := make([]string, 0, len(n.deps))
	for id := range n.deps {
		deps = append(deps, id)
	}
	sort.Strings(deps)
	return deps, nil
}

// TransitivePrerequisitesOf returns the full prerequisite closure of a
// task, sorted. The task itself is never a member: Build has already
// proven acyclicity.
func (g *Graph) TransitivePrerequisitesOf(slug string) ([]string, error) {
	n, ok := g.nodes[slug]
	if !ok {
		return nil, fmt.Errorf("unknown task: %s", slug)
	}
	seen := make(map[string]bool)
	var walk func(*node)
	walk = func(cur *node) {
		for id, dep := range cur.deps {
			if !seen[id] {
				seen[id] = true
				walk(dep)
			}
		}
	}
	walk(n)
	closure := make([]string, 0, len(seen))
	for id := range seen {
		closure = append(closure, id)
	}
	sort.Strings(closure)
	return closure, nil
}

// TopoOrder returns the stable topological ordering: every task appears
// after all of its prerequisites, ties broken by slug.
func (g *Graph) TopoOrder() []string {
	return append([]string(nil), g.order...)
}
