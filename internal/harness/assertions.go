package harness

import (
	"fmt"
	"math"

	"github.com/roach88/scalargrad/internal/ir"
)

// AssertionError is returned when an expectation fails.
type AssertionError struct {
	Node     string
	Field    string // "data", "grad" or "node"
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s.%s: expected %s, got %s", e.Node, e.Field, e.Expected, e.Actual)
}

// EvaluateExpectations checks every expectation against the report and
// returns one message per failure (does not fail-fast).
func EvaluateExpectations(report *ir.Report, expects []Expectation, tol float64) []string {
	var errs []string
	for _, e := range expects {
		for _, err := range checkExpectation(report, e, tol) {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// checkExpectation validates a single node.
func checkExpectation(report *ir.Report, e Expectation, tol float64) []error {
	node, ok := report.Node(e.Node)
	if !ok {
		return []error{&AssertionError{
			Node:     e.Node,
			Field:    "node",
			Expected: "node in report",
			Actual:   "missing",
		}}
	}

	var errs []error
	if e.Data != nil && !approxEqual(float64(node.Data), *e.Data, tol) {
		errs = append(errs, &AssertionError{
			Node:     e.Node,
			Field:    "data",
			Expected: formatFloat(*e.Data),
			Actual:   formatFloat(float64(node.Data)),
		})
	}
	if e.Grad != nil && !approxEqual(float64(node.Grad), *e.Grad, tol) {
		errs = append(errs, &AssertionError{
			Node:     e.Node,
			Field:    "grad",
			Expected: formatFloat(*e.Grad),
			Actual:   formatFloat(float64(node.Grad)),
		})
	}
	return errs
}

// approxEqual compares with an absolute tolerance.
func approxEqual(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}
