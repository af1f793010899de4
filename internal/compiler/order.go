package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/scalargrad/internal/ir"
)

// dependencyGraph maps node name → operand names.
type dependencyGraph map[string][]string

// CycleError reports nodes whose operands refer back to themselves.
type CycleError struct {
	Path []string `json:"path"` // e.g. ["a", "b", "a"]
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("nodes: definition cycle: %s", strings.Join(e.Path, " → "))
}

// orderNodes returns nodes so every operand precedes its consumers.
//
// The algorithm:
//  1. Build node → operands graph, rejecting unknown operand names
//  2. Run Tarjan's algorithm in declaration order
//  3. Any SCC with more than one node, or a self-loop, is a cycle
//  4. Tarjan emits SCCs after everything they reach, so with edges
//     pointing at operands the emission order is dependency order
//
// Ties keep declaration order, so a file written in dependency order
// compiles to the same order.
func orderNodes(nodes []ir.NodeSpec) ([]ir.NodeSpec, error) {
	byName := make(map[string]ir.NodeSpec, len(nodes))
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		byName[n.Name] = n
		names = append(names, n.Name)
	}

	graph := make(dependencyGraph, len(nodes))
	for _, n := range nodes {
		for _, op := range n.Operands {
			if _, ok := byName[op]; !ok {
				return nil, &CompileError{
					Field:   "nodes." + n.Name + "." + n.Op,
					Message: fmt.Sprintf("unknown operand %q", op),
					Code:    ErrUnknownOperand,
				}
			}
		}
		graph[n.Name] = n.Operands
	}

	sccs := tarjanSCC(names, graph)

	ordered := make([]ir.NodeSpec, 0, len(nodes))
	for _, scc := range sccs {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			return nil, &CycleError{Path: reconstructCyclePath(scc, graph)}
		}
		ordered = append(ordered, byName[scc[0]])
	}

	return ordered, nil
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Roots are visited in the order given so the result is deterministic.
func tarjanSCC(order []string, graph dependencyGraph) [][]string {
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

		// v is a root node: pop the stack and emit an SCC
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

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// reconstructCyclePath builds a closed path through an SCC, starting at its
// first member. Self-loops yield [n, n].
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 1 {
		return []string{scc[0], scc[0]}
	}

	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
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
