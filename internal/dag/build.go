package dag

import (
	"context"
	"sort"

	"github.com/vk/labgate/internal/course"
	"github.com/vk/labgate/internal/ctxlog"
	"github.com/vk/labgate/internal/registry"
)

// Build constructs the validated prerequisite graph for one tree state.
// Implicit edges chain each lab's tasks in declared order; explicit edges
// from the declaration files are folded in afterwards, then the whole
// graph is validated once.
func Build(ctx context.Context, reg *registry.Registry, decls *course.Declarations) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)

	g := newGraph()
	for _, slug := range reg.SortedSlugs() {
		g.addNode(slug)
	}
	logger.Debug("Build: node creation complete.", "node_count", len(g.nodes))

	// Implicit edges: task i requires task i-1 within its lab.
	for _, lab := range reg.Labs {
		for i := 1; i < len(lab.Tasks); i++ {
			if err := g.addEdge(lab.Tasks[i], lab.Tasks[i-1]); err != nil {
				return nil, err
			}
		}
	}

	// Explicit edges augment the chains with cross-lab or skip-ahead
	// requirements.
	for _, edge := range decls.Edges {
		if err := g.addEdge(edge.From, edge.To); err != nil {
			return nil, err
		}
	}
	logger.Debug("Build: edge linking complete.", "edge_count", len(g.Edges()))

	if err := g.sortTopologically(); err != nil {
		return nil, err
	}
	logger.Debug("Build: topological sort passed.", "node_count", len(g.order))
	return g, nil
}

// sortTopologically runs Kahn's algorithm, always picking the smallest
// ready slug so the resulting order is stable across runs. Any node left
// unscheduled once no zero-in-degree node remains sits on a cycle.
func (g *Graph) sortTopologically() error {
	inDegree := make(map[string]int, len(g.nodes))
	var ready []string
	for id, n := range g.nodes {
		inDegree[id] = len(n.deps)
		if len(n.deps) == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var unlocked []string
		for depID := range g.nodes[id].dependents {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				unlocked = append(unlocked, depID)
			}
		}
		sort.Strings(unlocked)
		ready = merge(ready, unlocked)
	}

	if len(order) != len(g.nodes) {
		return &CyclicDependencyError{Cycle: g.minimalCycle(inDegree)}
	}
	g.order = order
	return nil
}

// merge combines two sorted slices into one sorted slice.
func merge(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// minimalCycle finds the shortest cycle among the nodes Kahn's algorithm
// could not schedule, via breadth-first search from each of them. Ties go
// to the lexicographically smallest starting slug.
func (g *Graph) minimalCycle(inDegree map[string]int) []string {
	var remaining []string
	for id, deg := range inDegree {
		if deg > 0 {
			remaining = append(remaining, id)
		}
	}
	sort.Strings(remaining)
	stuck := make(map[string]bool, len(remaining))
	for _, id := range remaining {
		stuck[id] = true
	}

	var best []string
	for _, start := range remaining {
		cycle := g.shortestCycleThrough(start, stuck)
		if cycle != nil && (best == nil || len(cycle) < len(best)) {
			best = cycle
		}
	}
	return best
}

// shortestCycleThrough BFS-walks dependency edges from start, restricted
// to the stuck set, until it returns to start.
func (g *Graph) shortestCycleThrough(start string, stuck map[string]bool) []string {
	parent := make(map[string]string)
	queue := []string{start}
	visited := map[string]bool{start: true}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		deps := make([]string, 0, len(g.nodes[cur].deps))
		for id := range g.nodes[cur].deps {
			deps = append(deps, id)
		}
		sort.Strings(deps)
		for _, dep := range deps {
			if !stuck[dep] {
				continue
			}
			if dep == start {
				// Reconstruct start -> ... -> cur -> start.
				path := []string{start}
				var rev []string
				for at := cur; at != start; at = parent[at] {
					rev = append(rev, at)
				}
				for i := len(rev) - 1; i >= 0; i-- {
					path = append(path, rev[i])
				}
				return append(path, start)
			}
			if !visited[dep] {
				visited[dep] = true
				parent[dep] = cur
				queue = append(queue, dep)
			}
		}
	}
	return nil
}
