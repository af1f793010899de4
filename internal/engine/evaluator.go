package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/scalargrad/internal/graph"
	"github.com/roach88/scalargrad/internal/ir"
)

// builders maps spec operator names to graph builder functions.
var builders = map[string]func(a, b graph.Handle) (graph.Handle, error){
	ir.OpAdd: graph.Add,
	ir.OpMul: graph.Mul,
}

// Evaluator builds and differentiates graph specs.
type Evaluator struct {
	logger      *slog.Logger
	sessionOpts []graph.Option
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger for evaluation and session debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSessionOptions passes options to every session the evaluator starts.
func WithSessionOptions(opts ...graph.Option) Option {
	return func(e *Evaluator) {
		e.sessionOpts = append(e.sessionOpts, opts...)
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request controls a single evaluation.
type Request struct {
	// Root overrides spec.Root when set.
	Root string

	// Passes is the number of backward passes. 0 evaluates forward only.
	Passes int

	// ZeroBetween calls ZeroGrad before every pass after the first.
	ZeroBetween bool
}

// Result is the outcome of an evaluation.
type Result struct {
	Session *graph.Session
	Handles map[string]graph.Handle
	Report  ir.Report
}

// Build inserts every node of spec into a new session.
// spec.Nodes must already be in dependency order (as CompileGraph emits).
func (e *Evaluator) Build(spec *ir.GraphSpec) (*graph.Session, map[string]graph.Handle, error) {
	opts := append([]graph.Option{graph.WithLogger(e.logger)}, e.sessionOpts...)
	s := graph.Start(opts...)
	handles := make(map[string]graph.Handle, len(spec.Nodes))

	for _, n := range spec.Nodes {
		if _, dup := handles[n.Name]; dup {
			return nil, nil, fmt.Errorf("build %s: duplicate node %q", spec.Name, n.Name)
		}

		if n.IsLeaf() {
			handles[n.Name] = s.Leaf(n.Value)
			continue
		}

		build, ok := builders[n.Op]
		if !ok {
			return nil, nil, fmt.Errorf("build %s: node %q: %w", spec.Name, n.Name,
				&graph.Error{Code: graph.ErrCodeUnsupportedOperation, Message: fmt.Sprintf("no builder for op %q", n.Op), Op: graph.Op(n.Op)})
		}
		if arity := graph.Op(n.Op).Arity(); len(n.Operands) != arity {
			return nil, nil, fmt.Errorf("build %s: node %q: %s takes %d operands, got %d", spec.Name, n.Name, n.Op, arity, len(n.Operands))
		}

		operands := make([]graph.Handle, 2)
		for i, name := range n.Operands {
			h, ok := handles[name]
			if !ok {
				return nil, nil, fmt.Errorf("build %s: node %q: operand %q is not defined before use", spec.Name, n.Name, name)
			}
			operands[i] = h
		}

		h, err := build(operands[0], operands[1])
		if err != nil {
			return nil, nil, fmt.Errorf("build %s: node %q: %w", spec.Name, n.Name, err)
		}
		handles[n.Name] = h
	}

	return s, handles, nil
}

// Evaluate builds spec, runs req.Passes backward passes from the root and
// returns the resulting report.
func (e *Evaluator) Evaluate(spec *ir.GraphSpec, req Request) (*Result, error) {
	if req.Passes < 0 {
		return nil, fmt.Errorf("evaluate %s: passes must be non-negative, got %d", spec.Name, req.Passes)
	}

	rootName := spec.Root
	if req.Root != "" {
		rootName = req.Root
	}

	s, handles, err := e.Build(spec)
	if err != nil {
		return nil, err
	}

	root, ok := handles[rootName]
	if !ok {
		return nil, fmt.Errorf("evaluate %s: root %q is not a node", spec.Name, rootName)
	}

	for pass := 0; pass < req.Passes; pass++ {
		if pass > 0 && req.ZeroBetween {
			s.ZeroGrad()
		}
		if err := s.Backward(root); err != nil {
			return nil, fmt.Errorf("evaluate %s: pass %d: %w", spec.Name, pass+1, err)
		}
	}

	report, err := snapshot(spec, s, handles)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", spec.Name, err)
	}
	if err := checkFinite(&report); err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", spec.Name, err)
	}
	report.Root = rootName
	report.Passes = req.Passes

	e.logger.Info("graph evaluated",
		"graph", spec.Name,
		"session", s.ID().String(),
		"root", rootName,
		"nodes", s.Len(),
		"passes", req.Passes,
	)

	return &Result{
		Session: s,
		Handles: handles,
		Report:  report,
	}, nil
}

// snapshot reads every node of spec back from the session.
func snapshot(spec *ir.GraphSpec, s *graph.Session, handles map[string]graph.Handle) (ir.Report, error) {
	report := ir.Report{
		Graph:     spec.Name,
		SessionID: s.ID().String(),
		Nodes:     make([]ir.NodeReport, 0, len(spec.Nodes)),
	}

	for _, n := range spec.Nodes {
		view, err := handles[n.Name].Node()
		if err != nil {
			return ir.Report{}, fmt.Errorf("snapshot node %q: %w", n.Name, err)
		}

		var operands []string
		if len(n.Operands) > 0 {
			operands = append(operands, n.Operands...)
		}
		report.Nodes = append(report.Nodes, ir.NodeReport{
			Name:     n.Name,
			ID:       int64(view.ID),
			Op:       string(view.Op),
			Data:     view.Data,
			Grad:     view.Grad,
			Operands: operands,
		})
	}

	return report, nil
}
