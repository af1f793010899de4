package graph

// idClock hands out node identifiers for a single session.
//
// The first call to next returns 1, so the zero NodeID never names a node.
// Ids are assigned in creation order, which is what makes operand edges
// point strictly backwards. Callers hold the session lock.
type idClock struct {
	seq int64
}

// next returns the next identifier and advances the clock.
func (c *idClock) next() NodeID {
	c.seq++
	return NodeID(c.seq)
}

// current returns the last identifier handed out without advancing.
func (c *idClock) current() NodeID {
	return NodeID(c.seq)
}
