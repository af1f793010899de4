package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scalargrad/internal/ir"
)

func TestOrderNodes_SelfLoop(t *testing.T) {
	_, err := orderNodes([]ir.NodeSpec{
		{Name: "a", Op: ir.OpLeaf},
		{Name: "x", Op: ir.OpAdd, Operands: []string{"x", "a"}},
	})
	require.Error(t, err)

	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"x", "x"}, cycle.Path)
	assert.Equal(t, ErrDefinitionCycle, ErrorCode(err))
}

func TestOrderNodes_MutualCycle(t *testing.T) {
	_, err := orderNodes([]ir.NodeSpec{
		{Name: "p", Op: ir.OpAdd, Operands: []string{"q", "q"}},
		{Name: "q", Op: ir.OpMul, Operands: []string{"p", "p"}},
	})
	require.Error(t, err)

	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	require.Len(t, cycle.Path, 3)
	assert.Equal(t, cycle.Path[0], cycle.Path[2])
	assert.Contains(t, err.Error(), "definition cycle")
}

func TestOrderNodes_Diamond(t *testing.T) {
	got, err := orderNodes([]ir.NodeSpec{
		{Name: "top", Op: ir.OpAdd, Operands: []string{"l", "r"}},
		{Name: "l", Op: ir.OpAdd, Operands: []string{"a", "a"}},
		{Name: "r", Op: ir.OpMul, Operands: []string{"a", "b"}},
		{Name: "a", Op: ir.OpLeaf, Value: 1},
		{Name: "b", Op: ir.OpLeaf, Value: 2},
	})
	require.NoError(t, err)

	names := make([]string, len(got))
	for i, n := range got {
		names[i] = n.Name
	}
	assert.Equal(t, []string{"a", "l", "b", "r", "top"}, names)
}

func TestTarjanSCC_Deterministic(t *testing.T) {
	graph := dependencyGraph{
		"a": {},
		"b": {"a"},
		"c": {"b", "a"},
	}
	for i := 0; i < 10; i++ {
		sccs := tarjanSCC([]string{"c", "b", "a"}, graph)
		assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, sccs)
	}
}
