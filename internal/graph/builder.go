package graph

// Add creates a node holding a.data + b.data with operands [a, b].
//
// Both handles must belong to the same session; otherwise Add fails with a
// CrossSessionOperation error and nothing is inserted. Neither operand is
// modified.
func Add(a, b Handle) (Handle, error) {
	return apply(OpAdd, a, b)
}

// Mul creates a node holding a.data * b.data with operands [a, b].
func Mul(a, b Handle) (Handle, error) {
	return apply(OpMul, a, b)
}

// apply validates operands, computes the forward value from the op table and
// inserts the result node.
func apply(op Op, operands ...Handle) (Handle, error) {
	rule, ok := lookupRule(op)
	if !ok || rule.forward == nil {
		return Handle{}, newUnsupportedError("", 0, op)
	}
	if len(operands) != rule.arity {
		return Handle{}, &Error{
			Code:    ErrCodeUnsupportedOperation,
			Message: "wrong operand count for " + string(op),
			Op:      op,
		}
	}

	// Same-session check happens before any lock or insertion.
	s := operands[0].s
	if s == nil {
		return Handle{}, newNotFoundError("", operands[0].id)
	}
	for _, h := range operands[1:] {
		if h.s == nil {
			return Handle{}, newNotFoundError(s.id.String(), h.id)
		}
		if h.s != s {
			return Handle{}, newCrossSessionError(op, s.id.String(), h.s.id.String())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	in := make([]float32, len(operands))
	ids := make([]NodeID, len(operands))
	for i, h := range operands {
		n, err := s.node(h.id)
		if err != nil {
			return Handle{}, err
		}
		in[i] = n.data
		ids[i] = n.id
	}

	return s.insert(rule.forward(in), op, ids), nil
}
