package graph

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Session owns every node created through it.
//
// The arena is append-only: nodes are never removed and their id, op, data
// and operands never change. Gradients are the only mutable state, and they
// are changed only through SetGrad, AddGrad and ZeroGrad.
type Session struct {
	mu     sync.Mutex
	id     uuid.UUID
	clock  idClock
	nodes  []node // nodes[i].id == NodeID(i+1)
	logger *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the structured logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithID fixes the session identity. Used for deterministic reports.
func WithID(id uuid.UUID) Option {
	return func(s *Session) {
		s.id = id
	}
}

// Start creates a new, empty session with its own id counter.
func Start(opts ...Option) *Session {
	s := &Session{
		id:     uuid.Must(uuid.NewV7()),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identity.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Len returns the number of nodes in the session.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

// Leaf inserts an input node holding data and returns its handle.
func (s *Session) Leaf(data float32) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(data, OpLeaf, nil)
}

// Lookup returns the current view of a node.
func (s *Session) Lookup(id NodeID) (Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.node(id)
	if err != nil {
		return Node{}, err
	}
	return n.view(), nil
}

// Nodes returns a snapshot of every node in creation order.
func (s *Session) Nodes() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Node, len(s.nodes))
	for i := range s.nodes {
		out[i] = s.nodes[i].view()
	}
	return out
}

// SetGrad overwrites the gradient of a node.
func (s *Session) SetGrad(id NodeID, value float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setGrad(id, value)
}

// AddGrad accumulates delta into the gradient of a node.
func (s *Session) AddGrad(id NodeID, delta float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addGrad(id, delta)
}

func (s *Session) setGrad(id NodeID, value float32) error {
	n, err := s.node(id)
	if err != nil {
		return err
	}
	n.grad = value
	return nil
}

// addGrad is the only gradient mutation used by Backward.
func (s *Session) addGrad(id NodeID, delta float32) error {
	n, err := s.node(id)
	if err != nil {
		return err
	}
	n.grad += delta
	return nil
}

// ZeroGrad resets every gradient in the session to 0.
// Required between independent backward passes over the same graph.
func (s *Session) ZeroGrad() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.nodes {
		s.nodes[i].grad = 0
	}
	s.logger.Debug("gradients zeroed",
		"session", s.id.String(),
		"nodes", len(s.nodes),
	)
}

// insert appends a node and returns its handle. Callers hold s.mu.
func (s *Session) insert(data float32, op Op, operands []NodeID) Handle {
	id := s.clock.next()
	s.nodes = append(s.nodes, node{
		id:       id,
		data:     data,
		op:       op,
		operands: operands,
	})
	s.logger.Debug("node inserted",
		"session", s.id.String(),
		"node", int64(id),
		"op", string(op),
	)
	return Handle{s: s, id: id}
}

// node resolves an id to its arena record. Callers hold s.mu.
func (s *Session) node(id NodeID) (*node, error) {
	if id < 1 || id > s.clock.current() || int(id) > len(s.nodes) {
		return nil, newNotFoundError(s.id.String(), id)
	}
	return &s.nodes[id-1], nil
}

// own checks that h belongs to this session.
func (s *Session) own(h Handle) error {
	if h.s == nil {
		return newNotFoundError(s.id.String(), h.id)
	}
	if h.s != s {
		return &Error{
			Code:      ErrCodeCrossSession,
			Message:   "handle belongs to session " + h.s.id.String(),
			NodeID:    h.id,
			SessionID: s.id.String(),
		}
	}
	return nil
}
