package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/storylet/internal/ir"
	"github.com/roach88/storylet/internal/lang"
)

// CycleWarning represents quality templates that render each other.
//
// Rendering a quality's name or description evaluates its template, and a
// $other.name reference renders another one. Nested rendering is
// depth-capped, so a cycle shows up as raw template text in the output.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["sword", "shield", "sword"]
	Message string   `json:"message"` // Human-readable description
}

// AnalyzeCycles finds render cycles among quality name and description
// templates. The algorithm:
//  1. Build quality -> quality edges for every .name or .description
//     reference ($. counts as the quality itself)
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop
//
// Warnings are sorted by their first path element.
func AnalyzeCycles(c *ir.Content) []CycleWarning {
	graph := buildRenderGraph(c.Qualities)

	var warnings []CycleWarning
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return warnings
}

// dependencyGraph maps quality id -> ids whose templates it renders.
type dependencyGraph map[string][]string

func buildRenderGraph(defs ir.Definitions) dependencyGraph {
	graph := make(dependencyGraph)
	for _, def := range defs.Ordered() {
		edges := []string{}
		visit := func(r *lang.Ref) {
			if len(r.Props) == 0 || (r.Props[0] != "name" && r.Props[0] != "description") {
				return
			}
			var target string
			switch r.Kind {
			case lang.RefSelf:
				target = def.ID
			case lang.RefQuality:
				target = r.Name
			default:
				return
			}
			if _, ok := defs[target]; ok && !slices.Contains(edges, target) {
				edges = append(edges, target)
			}
		}
		for _, src := range []string{def.Name, def.Description} {
			if t, err := lang.ParseTemplate(src); err == nil {
				walkTemplate(t, visit)
			}
		}
		graph[def.ID] = edges
	}
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so results are deterministic.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack into an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func cycleSCCToWarning(scc []string, graph dependencyGraph) CycleWarning {
	if len(scc) == 1 {
		id := scc[0]
		return CycleWarning{
			Path:    []string{id, id},
			Message: fmt.Sprintf("quality %s renders its own name or description", id),
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("render cycle: %s", strings.Join(path, " -> ")),
	}
}

// reconstructCyclePath starts at the smallest id in the SCC and follows
// edges to other members until it returns to the start.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := slices.Min(scc)
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
			break
		}

		path = append(path, next)

		if next == start {
			break
		}

		current = next
	}

	return path
}
