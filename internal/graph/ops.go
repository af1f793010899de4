package graph

// Op tags the operation that produced a node.
type Op string

const (
	// OpLeaf marks an input node with no operands.
	OpLeaf Op = "leaf"

	// OpAdd is binary addition.
	OpAdd Op = "add"

	// OpMul is binary multiplication.
	OpMul Op = "mul"
)

// opRule describes one operator: how many operands it takes, how its forward
// value is computed from operand data, and how an upstream gradient is split
// into per-operand contributions.
//
// local receives the upstream gradient of the node and the forward data of its
// operands, in operand order, and returns one contribution per operand.
// A nil local marks a terminal op (leaves).
type opRule struct {
	arity   int
	forward func(in []float32) float32
	local   func(grad float32, in []float32) []float32
}

// opTable is the closed set of operators the builder can emit and the
// backward engine can differentiate.
var opTable = map[Op]opRule{
	OpLeaf: {
		arity: 0,
	},
	OpAdd: {
		arity: 2,
		forward: func(in []float32) float32 {
			return in[0] + in[1]
		},
		// d(l+r)/dl = d(l+r)/dr = 1
		local: func(grad float32, _ []float32) []float32 {
			return []float32{grad, grad}
		},
	},
	OpMul: {
		arity: 2,
		forward: func(in []float32) float32 {
			return in[0] * in[1]
		},
		local: func(grad float32, in []float32) []float32 {
			return []float32{grad * in[1], grad * in[0]}
		},
	},
}

// lookupRule returns the rule for op, if one is registered.
func lookupRule(op Op) (opRule, bool) {
	r, ok := opTable[op]
	return r, ok
}

// Arity returns the operand count of op, or -1 when op is not registered.
func (op Op) Arity() int {
	r, ok := opTable[op]
	if !ok {
		return -1
	}
	return r.arity
}
