package graph

// Order returns the ids reachable from root in dependency order: every
// operand appears before the nodes that consume it, and each node appears
// exactly once.
//
// This is a DFS post-order. Because operand edges only point to earlier ids,
// the graph is acyclic and the walk needs no cycle detection.
func (s *Session) Order(root Handle) ([]NodeID, error) {
	if err := s.own(root); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.order(root.id)
}

// frame is one pending node on the explicit DFS stack. next indexes the
// operand to descend into when the frame is revisited.
type frame struct {
	id   NodeID
	next int
}

// order computes the post-order from root. Callers hold s.mu.
//
// The walk uses an explicit stack rather than recursion so long chains are
// bounded by heap, not goroutine stack.
func (s *Session) order(root NodeID) ([]NodeID, error) {
	if _, err := s.node(root); err != nil {
		return nil, err
	}

	visited := map[NodeID]bool{root: true}
	stack := []frame{{id: root}}
	var topo []NodeID

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		n, err := s.node(top.id)
		if err != nil {
			return nil, err
		}

		if top.next < len(n.operands) {
			child := n.operands[top.next]
			top.next++
			if !visited[child] {
				visited[child] = true
				stack = append(stack, frame{id: child})
			}
			continue
		}

		topo = append(topo, top.id)
		stack = stack[:len(stack)-1]
	}

	return topo, nil
}
