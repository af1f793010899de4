package compiler

import (
	"fmt"
	"math"

	"github.com/roach88/scalargrad/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrNoNodes         = "E100" // graph has no nodes
	ErrDuplicateName   = "E101" // two nodes share a name
	ErrUnknownOp       = "E102" // op is not leaf/add/mul
	ErrWrongArity      = "E103" // operand count does not match op
	ErrUnknownOperand  = "E104" // operand names no node
	ErrOperandOrder    = "E105" // operand is not declared before its consumer
	ErrRootMissing     = "E106" // root is empty or names no node
	ErrInvalidLeaf     = "E107" // leaf value is not a finite float32
	ErrDefinitionCycle = "E108" // nodes reference each other
)

// ValidationError represents a graph validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a GraphSpec against the rules the engine relies on.
// Returns all errors found (does not fail-fast).
//
// CompileGraph output always passes; Validate exists for specs assembled by
// hand, e.g. in tests or by other tooling.
func Validate(spec *ir.GraphSpec) []ValidationError {
	var errs []ValidationError

	if len(spec.Nodes) == 0 {
		return []ValidationError{{
			Field:   "nodes",
			Message: "at least one node is required",
			Code:    ErrNoNodes,
		}}
	}

	// Position of each name, for the before-use check
	pos := make(map[string]int, len(spec.Nodes))
	for i, n := range spec.Nodes {
		field := fmt.Sprintf("nodes[%d]", i)
		if _, dup := pos[n.Name]; dup {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate node name %q", n.Name),
				Code:    ErrDuplicateName,
			})
			continue
		}
		pos[n.Name] = i
	}

	for i, n := range spec.Nodes {
		field := fmt.Sprintf("nodes[%d]", i)
		errs = append(errs, validateNode(field, i, n, pos)...)
	}

	if spec.Root == "" {
		errs = append(errs, ValidationError{
			Field:   "root",
			Message: "root is required",
			Code:    ErrRootMissing,
		})
	} else if _, ok := pos[spec.Root]; !ok {
		errs = append(errs, ValidationError{
			Field:   "root",
			Message: fmt.Sprintf("root %q is not a node", spec.Root),
			Code:    ErrRootMissing,
		})
	}

	return errs
}

// validateNode checks one node against the names declared so far.
func validateNode(field string, idx int, n ir.NodeSpec, pos map[string]int) []ValidationError {
	var errs []ValidationError

	switch n.Op {
	case ir.OpLeaf:
		if len(n.Operands) != 0 {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "leaf takes no operands",
				Code:    ErrWrongArity,
			})
		}
		f := float64(n.Value)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("leaf value %v is not finite", n.Value),
				Code:    ErrInvalidLeaf,
			})
		}
		return errs
	case ir.OpAdd, ir.OpMul:
		if len(n.Operands) != 2 {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s takes 2 operands, got %d", n.Op, len(n.Operands)),
				Code:    ErrWrongArity,
			})
		}
	default:
		return append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("unknown op %q", n.Op),
			Code:    ErrUnknownOp,
		})
	}

	for _, op := range n.Operands {
		p, ok := pos[op]
		switch {
		case !ok:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown operand %q", op),
				Code:    ErrUnknownOperand,
			})
		case p >= idx:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("operand %q must be declared before %q", op, n.Name),
				Code:    ErrOperandOrder,
			})
		}
	}

	return errs
}
