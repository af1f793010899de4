package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/scalargrad/internal/compiler"
	"github.com/roach88/scalargrad/internal/engine"
)

// Harness is the test execution engine.
type Harness struct {
	evaluator *engine.Evaluator
	logger    *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Load and compile the CUE specs
//  2. Evaluate the named graph (fresh session per scenario)
//  3. Match expect_error, or check every expectation against the report
//
// Run returns an error only when the scenario cannot be executed at all
// (e.g. the spec path cannot be read). Spec and evaluation failures are
// reported through the Result so expect_error scenarios can assert on them.
func Run(scenario *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		evaluator: engine.New(engine.WithLogger(logger)),
		logger:    logger,
	}
	return h.run(scenario)
}

func (h *Harness) run(scenario *Scenario) (*Result, error) {
	result := NewResult()

	loaded, errs := compiler.Load(scenario.Spec)
	if loaded == nil {
		return nil, fmt.Errorf("failed to load specs: %w", errors.Join(errs...))
	}

	spec, ok := loaded.Graph(scenario.Graph)
	if !ok {
		err := fmt.Errorf("graph %q not found", scenario.Graph)
		if len(errs) > 0 {
			err = fmt.Errorf("graph %q did not compile: %w", scenario.Graph, errors.Join(errs...))
		}
		return h.expectFailure(scenario, result, err), nil
	}

	res, err := h.evaluator.Evaluate(spec, engine.Request{
		Root:        scenario.Root,
		Passes:      scenario.PassCount(),
		ZeroBetween: scenario.ZeroBetween,
	})
	if err != nil {
		return h.expectFailure(scenario, result, err), nil
	}
	result.Report = &res.Report

	if scenario.ExpectError != "" {
		result.AddError(fmt.Sprintf("expected error containing %q, but evaluation succeeded", scenario.ExpectError))
		return result, nil
	}

	for _, msg := range EvaluateExpectations(&res.Report, scenario.Expect, scenario.Tol()) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario executed",
		"scenario", scenario.Name,
		"pass", result.Pass,
	)
	return result, nil
}

// expectFailure records err and matches it against the scenario's
// expect_error.
func (h *Harness) expectFailure(scenario *Scenario, result *Result, err error) *Result {
	result.Failure = err.Error()

	switch {
	case scenario.ExpectError == "":
		result.AddError(fmt.Sprintf("unexpected error: %v", err))
	case !strings.Contains(err.Error(), scenario.ExpectError):
		result.AddError(fmt.Sprintf("expected error containing %q, got: %v", scenario.ExpectError, err))
	}
	return result
}

// RunFile loads a scenario file and runs it.
func RunFile(path string) (*Scenario, *Result, error) {
	scenario, err := LoadScenario(path)
	if err != nil {
		return nil, nil, err
	}
	result, err := Run(scenario)
	if err != nil {
		return scenario, nil, err
	}
	return scenario, result, nil
}
