package graph

// NodeID identifies a node within its owning session.
// Ids start at 1 and increase in creation order; 0 never names a node.
type NodeID int64

// Node is a read-only view of a node's current state.
type Node struct {
	ID       NodeID
	Data     float32
	Grad     float32
	Op       Op
	Operands []NodeID
}

// node is the arena record. Only grad changes after insertion.
type node struct {
	id       NodeID
	data     float32
	grad     float32
	op       Op
	operands []NodeID
}

func (n *node) view() Node {
	ops := make([]NodeID, len(n.operands))
	copy(ops, n.operands)
	return Node{
		ID:       n.id,
		Data:     n.data,
		Grad:     n.grad,
		Op:       n.op,
		Operands: ops,
	}
}

// Handle references a node together with the session that owns it.
// The zero Handle resolves nowhere.
type Handle struct {
	s  *Session
	id NodeID
}

// ID returns the node identifier.
func (h Handle) ID() NodeID { return h.id }

// Session returns the owning session, or nil for the zero Handle.
func (h Handle) Session() *Session { return h.s }

// Valid reports whether the handle is bound to a session.
func (h Handle) Valid() bool { return h.s != nil && h.id != 0 }

// Node returns the current view of the referenced node.
func (h Handle) Node() (Node, error) {
	if h.s == nil {
		return Node{}, newNotFoundError("", h.id)
	}
	return h.s.Lookup(h.id)
}

// Data returns the forward value of the referenced node.
func (h Handle) Data() (float32, error) {
	n, err := h.Node()
	if err != nil {
		return 0, err
	}
	return n.Data, nil
}

// Grad returns the accumulated gradient of the referenced node.
func (h Handle) Grad() (float32, error) {
	n, err := h.Node()
	if err != nil {
		return 0, err
	}
	return n.Grad, nil
}

// Backward runs a backward pass rooted at this node.
func (h Handle) Backward() error {
	if h.s == nil {
		return newNotFoundError("", h.id)
	}
	return h.s.Backward(h)
}
