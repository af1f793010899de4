package ir

// Report captures the state of a graph after backward evaluation.
type Report struct {
	Graph     string       `json:"graph"`
	SessionID string       `json:"session_id,omitempty"`
	Root      string       `json:"root"`
	Passes    int          `json:"passes"`
	Nodes     []NodeReport `json:"nodes"`
}

// NodeReport is the per-node part of a Report.
type NodeReport struct {
	Name     string   `json:"name"`
	ID       int64    `json:"id"`
	Op       string   `json:"op"`
	Data     float32  `json:"data"`
	Grad     float32  `json:"grad"`
	Operands []string `json:"operands,omitempty"`
}

// Node returns the report entry for name.
func (r *Report) Node(name string) (NodeReport, bool) {
	for _, n := range r.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return NodeReport{}, false
}

// ToCanonicalMap converts the report to the generic shape accepted by
// MarshalCanonical. The session id is dropped when includeSession is false so
// snapshots stay deterministic.
func (r *Report) ToCanonicalMap(includeSession bool) map[string]any {
	nodes := make([]any, len(r.Nodes))
	for i, n := range r.Nodes {
		m := map[string]any{
			"name": n.Name,
			"id":   n.ID,
			"op":   n.Op,
			"data": n.Data,
			"grad": n.Grad,
		}
		if len(n.Operands) > 0 {
			ops := make([]any, len(n.Operands))
			for j, o := range n.Operands {
				ops[j] = o
			}
			m["operands"] = ops
		}
		nodes[i] = m
	}

	out := map[string]any{
		"graph":  r.Graph,
		"root":   r.Root,
		"passes": r.Passes,
		"nodes":  nodes,
	}
	if includeSession && r.SessionID != "" {
		out["session_id"] = r.SessionID
	}
	return out
}
