package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/scalargrad/internal/ir"
)

// RunWithGolden executes a scenario and compares its report against the golden
// file {dir}/{scenario.Name}.golden. Pass the golden/ directory next to the
// scenario file so the harness and `scalargrad test` share one snapshot.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails or produces no report.
// Test failure (via goldie) occurs if the report doesn't match.
func RunWithGolden(t *testing.T, dir string, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if result.Report == nil {
		return result, &AssertionError{
			Node:     scenario.Graph,
			Field:    "report",
			Expected: "evaluated report",
			Actual:   result.Failure,
		}
	}

	if err := AssertGolden(t, dir, scenario.Name, result.Report); err != nil {
		return result, err
	}
	return result, nil
}

// AssertGolden compares a report against a golden file without re-running.
func AssertGolden(t *testing.T, dir, name string, report *ir.Report) error {
	t.Helper()

	reportJSON, err := ir.MarshalCanonical(report.ToCanonicalMap(false))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, reportJSON)

	return nil
}
