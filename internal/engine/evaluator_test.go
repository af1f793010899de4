package engine

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scalargrad/internal/graph"
	"github.com/roach88/scalargrad/internal/ir"
	"github.com/roach88/scalargrad/internal/testutil"
)

func quietEvaluator(opts ...Option) *Evaluator {
	return New(append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)...)
}

func chainSpec() *ir.GraphSpec {
	return &ir.GraphSpec{
		Name: "chain",
		Root: "s2",
		Nodes: []ir.NodeSpec{
			{Name: "a", Op: ir.OpLeaf, Value: 1},
			{Name: "b", Op: ir.OpLeaf, Value: 2},
			{Name: "c", Op: ir.OpLeaf, Value: 3},
			{Name: "s1", Op: ir.OpAdd, Operands: []string{"a", "b"}},
			{Name: "s2", Op: ir.OpAdd, Operands: []string{"s1", "c"}},
		},
	}
}

func gradOf(t *testing.T, r *ir.Report, name string) float32 {
	t.Helper()
	n, ok := r.Node(name)
	require.True(t, ok, "node %s missing from report", name)
	return n.Grad
}

func TestEvaluate_Chain(t *testing.T) {
	res, err := quietEvaluator().Evaluate(chainSpec(), Request{Passes: 1})
	require.NoError(t, err)

	r := &res.Report
	assert.Equal(t, "chain", r.Graph)
	assert.Equal(t, "s2", r.Root)
	assert.Equal(t, 1, r.Passes)
	require.Len(t, r.Nodes, 5)

	for _, name := range []string{"a", "b", "c", "s1", "s2"} {
		assert.Equal(t, float32(1), gradOf(t, r, name), name)
	}

	s2, _ := r.Node("s2")
	assert.Equal(t, float32(6), s2.Data)
	assert.Equal(t, ir.OpAdd, s2.Op)
	assert.Equal(t, []string{"s1", "c"}, s2.Operands)
}

func TestEvaluate_ReportIDsFollowCreationOrder(t *testing.T) {
	res, err := quietEvaluator().Evaluate(chainSpec(), Request{Passes: 1})
	require.NoError(t, err)

	for i, n := range res.Report.Nodes {
		assert.Equal(t, int64(i+1), n.ID)
	}
	assert.Equal(t, res.Session.ID().String(), res.Report.SessionID)
}

func TestEvaluate_ForwardOnly(t *testing.T) {
	res, err := quietEvaluator().Evaluate(chainSpec(), Request{Passes: 0})
	require.NoError(t, err)

	for _, n := range res.Report.Nodes {
		assert.Equal(t, float32(0), n.Grad, n.Name)
	}
}

func TestEvaluate_RepeatedPassesAccumulate(t *testing.T) {
	res, err := quietEvaluator().Evaluate(chainSpec(), Request{Passes: 3})
	require.NoError(t, err)

	// s1 propagates its accumulated gradient each pass: s1 1→2→3, a 1→3→6
	assert.Equal(t, float32(6), gradOf(t, &res.Report, "a"))
	assert.Equal(t, float32(6), gradOf(t, &res.Report, "b"))
	assert.Equal(t, float32(3), gradOf(t, &res.Report, "c"))
	assert.Equal(t, float32(3), gradOf(t, &res.Report, "s1"))
	assert.Equal(t, float32(1), gradOf(t, &res.Report, "s2"))
}

func TestEvaluate_ZeroBetweenIsIdempotent(t *testing.T) {
	once, err := quietEvaluator().Evaluate(chainSpec(), Request{Passes: 1})
	require.NoError(t, err)
	twice, err := quietEvaluator().Evaluate(chainSpec(), Request{Passes: 2, ZeroBetween: true})
	require.NoError(t, err)

	for i := range once.Report.Nodes {
		assert.Equal(t, once.Report.Nodes[i].Grad, twice.Report.Nodes[i].Grad)
	}
}

func TestEvaluate_RootOverride(t *testing.T) {
	res, err := quietEvaluator().Evaluate(chainSpec(), Request{Root: "s1", Passes: 1})
	require.NoError(t, err)

	assert.Equal(t, "s1", res.Report.Root)
	assert.Equal(t, float32(1), gradOf(t, &res.Report, "a"))
	assert.Equal(t, float32(0), gradOf(t, &res.Report, "c"))
	assert.Equal(t, float32(0), gradOf(t, &res.Report, "s2"))
}

func TestEvaluate_Mul(t *testing.T) {
	spec := &ir.GraphSpec{
		Name: "poly",
		Root: "f",
		Nodes: []ir.NodeSpec{
			{Name: "x", Op: ir.OpLeaf, Value: 3},
			{Name: "sq", Op: ir.OpMul, Operands: []string{"x", "x"}},
			{Name: "f", Op: ir.OpAdd, Operands: []string{"sq", "x"}},
		},
	}

	res, err := quietEvaluator().Evaluate(spec, Request{Passes: 1})
	require.NoError(t, err)

	f, _ := res.Report.Node("f")
	assert.Equal(t, float32(12), f.Data)
	// d(x*x + x)/dx = 2x + 1
	assert.Equal(t, float32(7), gradOf(t, &res.Report, "x"))
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec *ir.GraphSpec
		req  Request
	}{
		{
			name: "negative passes",
			spec: chainSpec(),
			req:  Request{Passes: -1},
		},
		{
			name: "unknown root",
			spec: chainSpec(),
			req:  Request{Root: "zz", Passes: 1},
		},
		{
			name: "operand out of order",
			spec: &ir.GraphSpec{Name: "bad", Root: "c", Nodes: []ir.NodeSpec{
				{Name: "c", Op: ir.OpAdd, Operands: []string{"a", "a"}},
				{Name: "a", Op: ir.OpLeaf},
			}},
			req: Request{Passes: 1},
		},
		{
			name: "duplicate node",
			spec: &ir.GraphSpec{Name: "dup", Root: "a", Nodes: []ir.NodeSpec{
				{Name: "a", Op: ir.OpLeaf},
				{Name: "a", Op: ir.OpLeaf},
			}},
			req: Request{Passes: 1},
		},
		{
			name: "wrong arity",
			spec: &ir.GraphSpec{Name: "arity", Root: "c", Nodes: []ir.NodeSpec{
				{Name: "a", Op: ir.OpLeaf},
				{Name: "c", Op: ir.OpAdd, Operands: []string{"a"}},
			}},
			req: Request{Passes: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := quietEvaluator().Evaluate(tt.spec, tt.req)
			assert.Error(t, err)
		})
	}
}

func TestEvaluate_UnknownOpIsUnsupported(t *testing.T) {
	spec := &ir.GraphSpec{Name: "pow", Root: "p", Nodes: []ir.NodeSpec{
		{Name: "a", Op: ir.OpLeaf},
		{Name: "p", Op: "pow", Operands: []string{"a", "a"}},
	}}

	_, err := quietEvaluator().Evaluate(spec, Request{Passes: 1})
	require.Error(t, err)
	assert.True(t, graph.IsUnsupportedOperation(err))
}

func TestEvaluate_SessionOptions(t *testing.T) {
	id := uuid.MustParse("018f4e2a-0000-7000-8000-0000000000aa")
	res, err := quietEvaluator(WithSessionOptions(graph.WithID(id))).Evaluate(chainSpec(), Request{Passes: 1})
	require.NoError(t, err)
	assert.Equal(t, id.String(), res.Report.SessionID)
}

func TestEvaluate_CanonicalReportWithSession(t *testing.T) {
	ids := testutil.NewSessionIDs()
	spec := &ir.GraphSpec{
		Name: "reuse",
		Root: "e",
		Nodes: []ir.NodeSpec{
			{Name: "a", Op: ir.OpLeaf, Value: 3},
			{Name: "e", Op: ir.OpAdd, Operands: []string{"a", "a"}},
		},
	}

	for i := 1; i <= 2; i++ {
		res, err := quietEvaluator(WithSessionOptions(graph.WithID(ids.Next()))).Evaluate(spec, Request{Passes: 1})
		require.NoError(t, err)

		out, err := ir.MarshalCanonical(res.Report.ToCanonicalMap(true))
		require.NoError(t, err)
		assert.Equal(t,
			`{"graph":"reuse","nodes":[{"data":3,"grad":2,"id":1,"name":"a","op":"leaf"},{"data":6,"grad":1,"id":2,"name":"e","op":"add","operands":["a","a"]}],"passes":1,"root":"e","session_id":"`+testutil.SessionID(uint64(i)).String()+`"}`,
			string(out))
	}
}

func TestEvaluate_LogsEvaluation(t *testing.T) {
	var buf bytes.Buffer
	e := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	_, err := e.Evaluate(chainSpec(), Request{Passes: 1})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "graph evaluated")
	assert.Contains(t, buf.String(), "graph=chain")
}

func TestBuild_HandlesShareSession(t *testing.T) {
	s, handles, err := quietEvaluator().Build(chainSpec())
	require.NoError(t, err)

	assert.Equal(t, 5, s.Len())
	for name, h := range handles {
		assert.Same(t, s, h.Session(), name)
	}
}

func TestEvaluate_ForwardOverflowIsRejected(t *testing.T) {
	spec := &ir.GraphSpec{
		Name: "overflow",
		Root: "c",
		Nodes: []ir.NodeSpec{
			{Name: "a", Op: ir.OpLeaf, Value: 3e38},
			{Name: "c", Op: ir.OpAdd, Operands: []string{"a", "a"}},
		},
	}

	_, err := quietEvaluator().Evaluate(spec, Request{Passes: 1})
	require.Error(t, err)
	assert.True(t, IsNonFinite(err))

	var nf *NonFiniteError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "c", nf.Node)
	assert.Equal(t, "data", nf.Field)
	assert.Contains(t, err.Error(), `NON_FINITE_VALUE: node "c" data is +Inf`)
}

func TestEvaluate_GradientOverflowIsRejected(t *testing.T) {
	// every forward value is finite; grad(a) = b * b overflows
	spec := &ir.GraphSpec{
		Name: "steep",
		Root: "q",
		Nodes: []ir.NodeSpec{
			{Name: "a", Op: ir.OpLeaf, Value: 1e-30},
			{Name: "b", Op: ir.OpLeaf, Value: 1e30},
			{Name: "p", Op: ir.OpMul, Operands: []string{"a", "b"}},
			{Name: "q", Op: ir.OpMul, Operands: []string{"p", "b"}},
		},
	}

	res, err := quietEvaluator().Evaluate(spec, Request{Passes: 0})
	require.NoError(t, err, "forward values alone are finite")
	assert.Equal(t, float32(0), gradOf(t, &res.Report, "a"))

	_, err = quietEvaluator().Evaluate(spec, Request{Passes: 1})
	var nf *NonFiniteError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "a", nf.Node)
	assert.Equal(t, "grad", nf.Field)
}

func TestBuild_ArityFromOpTable(t *testing.T) {
	spec := &ir.GraphSpec{Name: "arity", Root: "c", Nodes: []ir.NodeSpec{
		{Name: "a", Op: ir.OpLeaf},
		{Name: "c", Op: ir.OpMul, Operands: []string{"a", "a", "a"}},
	}}

	_, _, err := quietEvaluator().Build(spec)
	require.Error(t, err)
	assert.Equal(t, `build arity: node "c": mul takes 2 operands, got 3`, err.Error())
}
