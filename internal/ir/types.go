package ir

import "fmt"

// Operator names used in graph specs. They match graph.Op tags.
const (
	OpLeaf = "leaf"
	OpAdd  = "add"
	OpMul  = "mul"
)

// BinaryOps lists the operator names that take two operands.
var BinaryOps = []string{OpAdd, OpMul}

// GraphSpec is a compiled graph definition.
type GraphSpec struct {
	// Name is the graph label (graph.<name> in CUE).
	Name string `json:"name"`

	// Root names the node backward passes start from.
	Root string `json:"root"`

	// Nodes are ordered so every operand precedes its consumers.
	Nodes []NodeSpec `json:"nodes"`
}

// NodeSpec is a single named node in a GraphSpec.
type NodeSpec struct {
	Name     string   `json:"name"`
	Op       string   `json:"op"`
	Value    float32  `json:"value,omitempty"`    // leaf only
	Operands []string `json:"operands,omitempty"` // operator nodes only
}

// IsLeaf reports whether the node is an input.
func (n NodeSpec) IsLeaf() bool {
	return n.Op == OpLeaf
}

// String renders the node as a short expression, e.g. "s1 = add(a, b)".
func (n NodeSpec) String() string {
	if n.IsLeaf() {
		return fmt.Sprintf("%s = %g", n.Name, n.Value)
	}
	if len(n.Operands) == 2 {
		return fmt.Sprintf("%s = %s(%s, %s)", n.Name, n.Op, n.Operands[0], n.Operands[1])
	}
	return fmt.Sprintf("%s = %s(%v)", n.Name, n.Op, n.Operands)
}

// Node returns the node with the given name.
func (g *GraphSpec) Node(name string) (NodeSpec, bool) {
	for _, n := range g.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return NodeSpec{}, false
}
