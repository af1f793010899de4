// Package engine evaluates compiled graph specs.
//
// The Evaluator materializes an ir.GraphSpec into a fresh graph.Session,
// inserting nodes in spec order (operands first), runs the requested number
// of backward passes from the root and snapshots every node into an
// ir.Report.
//
// Each evaluation owns its session. Sessions are never shared between
// evaluations, so an Evaluator is safe for concurrent use.
package engine
