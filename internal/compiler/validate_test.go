package compiler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scalargrad/internal/ir"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValidGraph(t *testing.T) {
	spec := &ir.GraphSpec{
		Name: "ok",
		Root: "c",
		Nodes: []ir.NodeSpec{
			{Name: "a", Op: ir.OpLeaf, Value: 2},
			{Name: "b", Op: ir.OpLeaf, Value: 3},
			{Name: "c", Op: ir.OpAdd, Operands: []string{"a", "b"}},
		},
	}
	assert.Empty(t, Validate(spec))
}

func TestValidateNoNodes(t *testing.T) {
	errs := Validate(&ir.GraphSpec{Root: "x"})
	assert.Equal(t, []string{ErrNoNodes}, codes(errs))
}

func TestValidateCollectsAllErrors(t *testing.T) {
	spec := &ir.GraphSpec{
		Root: "missing",
		Nodes: []ir.NodeSpec{
			{Name: "a", Op: ir.OpLeaf, Value: 1},
			{Name: "a", Op: ir.OpLeaf, Value: 2},
			{Name: "c", Op: ir.OpAdd, Operands: []string{"a", "d"}},
			{Name: "d", Op: ir.OpLeaf, Value: float32(math.Inf(1))},
			{Name: "e", Op: "pow", Operands: []string{"a", "a"}},
			{Name: "f", Op: ir.OpMul, Operands: []string{"a"}},
			{Name: "g", Op: ir.OpLeaf, Operands: []string{"a"}},
		},
	}

	got := codes(Validate(spec))
	assert.Contains(t, got, ErrDuplicateName)
	assert.Contains(t, got, ErrOperandOrder)
	assert.Contains(t, got, ErrInvalidLeaf)
	assert.Contains(t, got, ErrUnknownOp)
	assert.Contains(t, got, ErrWrongArity)
	assert.Contains(t, got, ErrRootMissing)
}

func TestValidateUnknownOperand(t *testing.T) {
	spec := &ir.GraphSpec{
		Root: "c",
		Nodes: []ir.NodeSpec{
			{Name: "a", Op: ir.OpLeaf},
			{Name: "c", Op: ir.OpAdd, Operands: []string{"a", "zz"}},
		},
	}
	errs := Validate(spec)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownOperand, errs[0].Code)
	assert.Equal(t, `[E104] nodes[1]: unknown operand "zz"`, errs[0].Error())
}

func TestValidateMissingRoot(t *testing.T) {
	errs := Validate(&ir.GraphSpec{Nodes: []ir.NodeSpec{{Name: "a", Op: ir.OpLeaf}}})
	assert.Equal(t, []string{ErrRootMissing}, codes(errs))
}

func TestValidationErrorWithLine(t *testing.T) {
	e := ValidationError{Field: "root", Message: "x", Code: ErrRootMissing, Line: 4}
	assert.Equal(t, "[E106] line 4: root: x", e.Error())
}
