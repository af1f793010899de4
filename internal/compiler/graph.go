package compiler

import (
	"fmt"
	"math"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/scalargrad/internal/ir"
)

// nodeOps lists the fields a node may set, exactly one per node.
var nodeOps = append([]string{ir.OpLeaf}, ir.BinaryOps...)

// CompileGraph parses a CUE value into a GraphSpec.
//
// The CUE value should be the graph struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`graph: sum: { ... }`)
//	spec, err := CompileGraph(v.LookupPath(cue.ParsePath("graph.sum")))
func CompileGraph(v cue.Value) (*ir.GraphSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.GraphSpec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = ir.NormalizeName(selectorName(labels[len(labels)-1]))
	}

	nodesVal := v.LookupPath(cue.ParsePath("nodes"))
	if !nodesVal.Exists() {
		return nil, &CompileError{
			Field:   "nodes",
			Message: "nodes is required",
			Code:    ErrNoNodes,
			Pos:     v.Pos(),
		}
	}

	nodes, err := parseNodes(nodesVal)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, &CompileError{
			Field:   "nodes",
			Message: "at least one node is required",
			Code:    ErrNoNodes,
			Pos:     nodesVal.Pos(),
		}
	}

	ordered, err := orderNodes(nodes)
	if err != nil {
		return nil, err
	}
	spec.Nodes = ordered

	rootVal := v.LookupPath(cue.ParsePath("root"))
	if rootVal.Exists() {
		root, err := rootVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Root = ir.NormalizeName(root)
		if _, ok := spec.Node(spec.Root); !ok {
			return nil, &CompileError{
				Field:   "root",
				Message: fmt.Sprintf("root %q is not a node", spec.Root),
				Code:    ErrRootMissing,
				Pos:     rootVal.Pos(),
			}
		}
	} else {
		spec.Root = ordered[len(ordered)-1].Name
	}

	return spec, nil
}

// selectorName returns a field label without CUE quoting, so
// graph: "my-graph" is named my-graph.
func selectorName(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}

// parseNodes reads every node in declaration order.
func parseNodes(v cue.Value) ([]ir.NodeSpec, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var nodes []ir.NodeSpec
	seen := make(map[string]bool)
	for iter.Next() {
		name := ir.NormalizeName(iter.Label())
		if seen[name] {
			return nil, &CompileError{
				Field:   "nodes." + name,
				Message: "duplicate node name (after NFC normalization)",
				Code:    ErrDuplicateName,
				Pos:     iter.Value().Pos(),
			}
		}
		seen[name] = true

		node, err := parseNode(name, iter.Value())
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	return nodes, nil
}

// parseNode reads a single node: exactly one of leaf, add or mul.
func parseNode(name string, v cue.Value) (ir.NodeSpec, error) {
	var (
		found  string
		opVal  cue.Value
		fields int
	)
	for _, op := range nodeOps {
		fv := v.LookupPath(cue.ParsePath(op))
		if fv.Exists() {
			fields++
			found = op
			opVal = fv
		}
	}

	field := "nodes." + name
	switch fields {
	case 0:
		return ir.NodeSpec{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("node must set one of %v", nodeOps),
			Code:    ErrUnknownOp,
			Pos:     v.Pos(),
		}
	case 1:
	default:
		return ir.NodeSpec{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("node sets more than one of %v", nodeOps),
			Code:    ErrUnknownOp,
			Pos:     v.Pos(),
		}
	}

	if found == ir.OpLeaf {
		f, err := opVal.Float64()
		if err != nil {
			return ir.NodeSpec{}, &CompileError{
				Field:   field + ".leaf",
				Message: "leaf value must be a number",
				Code:    ErrInvalidLeaf,
				Pos:     opVal.Pos(),
			}
		}
		if math.IsNaN(f) || math.Abs(f) > math.MaxFloat32 {
			return ir.NodeSpec{}, &CompileError{
				Field:   field + ".leaf",
				Message: fmt.Sprintf("leaf value %v does not fit a finite float32", f),
				Code:    ErrInvalidLeaf,
				Pos:     opVal.Pos(),
			}
		}
		return ir.NodeSpec{Name: name, Op: ir.OpLeaf, Value: float32(f)}, nil
	}

	operands, err := parseOperands(opVal)
	if err != nil {
		return ir.NodeSpec{}, &CompileError{
			Field:   field + "." + found,
			Message: err.Error(),
			Code:    ErrWrongArity,
			Pos:     opVal.Pos(),
		}
	}
	if len(operands) != 2 {
		return ir.NodeSpec{}, &CompileError{
			Field:   field + "." + found,
			Message: fmt.Sprintf("%s takes 2 operands, got %d", found, len(operands)),
			Code:    ErrWrongArity,
			Pos:     opVal.Pos(),
		}
	}

	return ir.NodeSpec{Name: name, Op: found, Operands: operands}, nil
}

// parseOperands reads a list of node names.
func parseOperands(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, fmt.Errorf("operands must be a list of node names")
	}

	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, fmt.Errorf("operand %d must be a string", len(out))
		}
		out = append(out, ir.NormalizeName(s))
	}
	return out, nil
}

// CompileError is a compile failure with an optional CUE source position.
type CompileError struct {
	Field   string
	Message string
	Code    string // validation code (E1xx), empty for raw CUE errors
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
