package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultTolerance is the absolute tolerance used when a scenario sets none.
const DefaultTolerance = 1e-6

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario (and its golden file).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Spec is the CUE file or directory holding the graph definition.
	// Relative paths are resolved against the scenario file location.
	Spec string `yaml:"spec"`

	// Graph names the graph under graph.<name> to evaluate.
	Graph string `yaml:"graph"`

	// Root overrides the graph's root node.
	Root string `yaml:"root,omitempty"`

	// Passes is the number of backward passes. Nil means 1.
	Passes *int `yaml:"passes,omitempty"`

	// ZeroBetween resets gradients before every pass after the first.
	ZeroBetween bool `yaml:"zero_between,omitempty"`

	// Tolerance is the absolute tolerance for data/grad comparison.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Expect lists per-node expectations.
	Expect []Expectation `yaml:"expect,omitempty"`

	// ExpectError is a substring the failure message must contain.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Expectation checks one node of the report. Nil fields are not checked.
type Expectation struct {
	Node string   `yaml:"node"`
	Data *float64 `yaml:"data,omitempty"`
	Grad *float64 `yaml:"grad,omitempty"`
}

// PassCount returns the number of backward passes to run.
func (s *Scenario) PassCount() int {
	if s.Passes == nil {
		return 1
	}
	return *s.Passes
}

// Tol returns the comparison tolerance.
func (s *Scenario) Tol() float64 {
	if s.Tolerance <= 0 {
		return DefaultTolerance
	}
	return s.Tolerance
}

// LoadScenario reads and parses a scenario YAML file.
// The spec path is resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the spec path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Spec != "" && !filepath.IsAbs(scenario.Spec) && basePath != "" {
		scenario.Spec = filepath.Join(basePath, scenario.Spec)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Spec == "" {
		return fmt.Errorf("spec is required")
	}

	if _, err := os.Stat(s.Spec); os.IsNotExist(err) {
		return fmt.Errorf("spec not found: %s", s.Spec)
	}

	if s.Graph == "" {
		return fmt.Errorf("graph is required")
	}

	if s.Passes != nil && *s.Passes < 0 {
		return fmt.Errorf("passes must be non-negative")
	}

	if s.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative")
	}

	if len(s.Expect) == 0 && s.ExpectError == "" {
		return fmt.Errorf("expect list or expect_error is required")
	}

	if len(s.Expect) > 0 && s.ExpectError != "" {
		return fmt.Errorf("expect and expect_error are mutually exclusive")
	}

	for i, e := range s.Expect {
		if e.Node == "" {
			return fmt.Errorf("expect[%d]: node is required", i)
		}
		if e.Data == nil && e.Grad == nil {
			return fmt.Errorf("expect[%d]: at least one of data or grad is required", i)
		}
	}

	return nil
}
