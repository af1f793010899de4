package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortedKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"zeta":  1,
		"alpha": "a",
		"mid":   true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":"a","mid":true,"zeta":1}`, string(got))
}

func TestMarshalCanonical_Floats(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{float32(5), "5"},
		{float32(2.5), "2.5"},
		{float32(0.1), "0.1"},
		{float64(0.1), "0.1"},
		{float32(-1), "-1"},
		{float32(math.Copysign(0, -1)), "0"},
		{float32(1e7), "1e+07"},
	}

	for _, tt := range tests {
		got, err := MarshalCanonical(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got), "input %v", tt.in)
	}
}

func TestMarshalCanonical_RejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(math.NaN())
	assert.Error(t, err)

	_, err = MarshalCanonical(float32(math.Inf(1)))
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": math.Inf(-1)})
	assert.Error(t, err)
}

func TestMarshalCanonical_RejectsNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical([]any{1, nil})
	assert.Error(t, err)
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical("a<b>&c")
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(got))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	// "e" + combining acute accent normalizes to precomposed "é"
	decomposed := "e\u0301"
	got, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))

	assert.Equal(t, "\u00e9", NormalizeName(decomposed))
}

func TestMarshalCanonical_UnsupportedType(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	assert.Error(t, err)
}

func TestMarshalCanonical_Report(t *testing.T) {
	r := Report{
		Graph:     "sum",
		SessionID: "abc",
		Root:      "c",
		Passes:    1,
		Nodes: []NodeReport{
			{Name: "a", ID: 1, Op: OpLeaf, Data: 2, Grad: 1},
			{Name: "b", ID: 2, Op: OpLeaf, Data: 3, Grad: 1},
			{Name: "c", ID: 3, Op: OpAdd, Data: 5, Grad: 1, Operands: []string{"a", "b"}},
		},
	}

	got, err := MarshalCanonical(r.ToCanonicalMap(false))
	require.NoError(t, err)
	assert.Equal(t,
		`{"graph":"sum","nodes":[`+
			`{"data":2,"grad":1,"id":1,"name":"a","op":"leaf"},`+
			`{"data":3,"grad":1,"id":2,"name":"b","op":"leaf"},`+
			`{"data":5,"grad":1,"id":3,"name":"c","op":"add","operands":["a","b"]}],`+
			`"passes":1,"root":"c"}`,
		string(got))

	withSession, err := MarshalCanonical(r.ToCanonicalMap(true))
	require.NoError(t, err)
	assert.Contains(t, string(withSession), `"session_id":"abc"`)
}
