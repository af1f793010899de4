package graph

// Backward computes the gradient of root with respect to every node that
// contributed to it.
//
// The pass:
//  1. Orders the reachable nodes (operands first)
//  2. Seeds grad(root) = 1
//  3. Walks that order in reverse, root first, and for each node adds the
//     op's local-derivative contributions into its operands' gradients
//
// Every node's consumers are processed before the node itself, so a node has
// received all of its contributions by the time it propagates onward.
//
// Before any gradient is touched, every visited op is checked against the op
// table; an unregistered op fails with UnsupportedOperation and leaves the
// session unchanged.
//
// Gradients accumulate across calls. Call ZeroGrad before a fresh pass.
func (s *Session) Backward(root Handle) error {
	if err := s.own(root); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	topo, err := s.order(root.id)
	if err != nil {
		return err
	}

	rules := make([]opRule, len(topo))
	for i, id := range topo {
		n := &s.nodes[id-1]
		r, ok := lookupRule(n.op)
		if !ok || len(n.operands) != r.arity || (r.arity > 0 && r.local == nil) {
			return newUnsupportedError(s.id.String(), id, n.op)
		}
		rules[i] = r
	}

	s.logger.Debug("backward pass starting",
		"session", s.id.String(),
		"root", int64(root.id),
		"nodes", len(topo),
	)

	if err := s.setGrad(root.id, 1); err != nil {
		return err
	}

	for i := len(topo) - 1; i >= 0; i-- {
		v := &s.nodes[topo[i]-1]
		r := rules[i]
		if r.local == nil {
			continue
		}

		in := make([]float32, len(v.operands))
		for j, opID := range v.operands {
			in[j] = s.nodes[opID-1].data
		}

		for j, contrib := range r.local(v.grad, in) {
			if err := s.addGrad(v.operands[j], contrib); err != nil {
				return err
			}
		}
	}

	s.logger.Debug("backward pass complete",
		"session", s.id.String(),
		"root", int64(root.id),
	)
	return nil
}
