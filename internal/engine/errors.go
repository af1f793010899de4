package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/roach88/scalargrad/internal/ir"
)

// ErrCodeNonFinite is reported when a forward value or gradient overflows
// float32 or becomes NaN.
const ErrCodeNonFinite = "NON_FINITE_VALUE"

// NonFiniteError reports the first node whose data or grad is not finite.
// Reports only ever carry finite values.
type NonFiniteError struct {
	Node  string
	Field string // "data" or "grad"
	Value float32
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("%s: node %q %s is %v", ErrCodeNonFinite, e.Node, e.Field, e.Value)
}

// IsNonFinite returns true if err is a NonFiniteError.
// Uses errors.As to handle wrapped errors.
func IsNonFinite(err error) bool {
	var nf *NonFiniteError
	return errors.As(err, &nf)
}

// checkFinite returns a NonFiniteError for the first non-finite value in r,
// in creation order, data before grad.
func checkFinite(r *ir.Report) error {
	for _, n := range r.Nodes {
		if !finite(n.Data) {
			return &NonFiniteError{Node: n.Name, Field: "data", Value: n.Data}
		}
		if !finite(n.Grad) {
			return &NonFiniteError{Node: n.Name, Field: "grad", Value: n.Grad}
		}
	}
	return nil
}

func finite(f float32) bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
