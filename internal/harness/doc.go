// Package harness provides conformance testing for graph specs.
//
// The harness loads CUE graph definitions, evaluates a named graph and checks
// the resulting forward values and gradients against a YAML scenario.
//
// # Scenario Format
//
//	name: chain_accumulation
//	description: "Gradients flow through nested sums"
//	spec: ../specs            # CUE file or directory, relative to the scenario
//	graph: chain
//	root: s2                  # optional, defaults to the graph root
//	passes: 2                 # optional, defaults to 1
//	zero_between: true        # ZeroGrad before every pass after the first
//	tolerance: 0.000001       # optional absolute tolerance
//	expect:
//	  - node: a
//	    data: 1
//	    grad: 1
//
// A scenario may instead set expect_error to a substring of the failure it
// expects from loading, compiling or evaluating the graph.
//
// # Golden Files
//
// RunWithGolden compares the canonical JSON of the report against
// {dir}/{name}.golden, the same golden/ directory `scalargrad test` reads
// next to each scenario. Session ids are omitted so snapshots are
// deterministic. Regenerate with:
//
//	go test ./internal/harness -update
package harness
