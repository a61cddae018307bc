package domain

import "sort"

// NodeSet is a set of task identifiers.
type NodeSet map[string]struct{}

// Has reports whether id is in the set.
func (s NodeSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in lexical order.
func (s NodeSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DependencyGraph maps each task identifier to the identifiers it depends on.
// Identifiers that only appear as dependencies have no entry and behave as
// leaves.
type DependencyGraph struct {
	order []string
	edges map[string][]string
}

// BuildGraph derives the dependency graph of a batch. When two tasks share an
// identifier the later one's dependencies win.
func BuildGraph(tasks []Task) *DependencyGraph {
	g := &DependencyGraph{edges: make(map[string][]string, len(tasks))}
	for i, t := range tasks {
		id := t.Key(i)
		if _, seen := g.edges[id]; !seen {
			g.order = append(g.order, id)
		}
		g.edges[id] = uniqueStrings(t.Dependencies)
	}
	return g
}

// Nodes returns the identifiers that have an entry, in batch order.
func (g *DependencyGraph) Nodes() []string {
	return append([]string(nil), g.order...)
}

// Has reports whether id has its own entry in the graph.
func (g *DependencyGraph) Has(id string) bool {
	_, ok := g.edges[id]
	return ok
}

// DependenciesOf returns the dependencies of id, nil for unknown identifiers.
func (g *DependencyGraph) DependenciesOf(id string) []string {
	return g.edges[id]
}

type dfsFrame struct {
	node string
	next int
}

// DetectCycles returns every identifier that was on the traversal path when a
// back edge was found. Whole paths are marked, not only strongly connected
// components, so nodes leading into a cycle may be reported as well.
func (g *DependencyGraph) DetectCycles() NodeSet {
	visited := make(map[string]bool, len(g.order))
	visiting := make(map[string]bool)
	cycles := NodeSet{}

	for _, root := range g.order {
		if visited[root] {
			continue
		}

		stack := []dfsFrame{{node: root}}
		visiting[root] = true

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.edges[top.node]

			if top.next < len(deps) {
				dep := deps[top.next]
				top.next++

				switch {
				case visited[dep]:
				case visiting[dep]:
					for _, f := range stack {
						cycles[f.node] = struct{}{}
					}
				default:
					visiting[dep] = true
					stack = append(stack, dfsFrame{node: dep})
				}
				continue
			}

			delete(visiting, top.node)
			visited[top.node] = true
			stack = stack[:len(stack)-1]
		}
	}

	return cycles
}

// BlockCounts returns, per identifier, how many other tasks in the batch list
// it as a dependency.
func BlockCounts(tasks []Task) map[string]int {
	counts := make(map[string]int, len(tasks))
	for i, t := range tasks {
		id := t.Key(i)
		for _, dep := range uniqueStrings(t.Dependencies) {
			if dep == id {
				continue
			}
			counts[dep]++
		}
	}
	return counts
}

func uniqueStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
