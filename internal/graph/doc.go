// Package graph implements a reverse-mode automatic differentiation core over
// scalar values.
//
// A Session is an append-only arena of nodes. Operations such as Add build new
// nodes whose operands are earlier nodes of the same session, so the operand
// graph is acyclic by construction. Backward seeds the root gradient with 1 and
// walks the reverse topological order, accumulating each node's gradient into
// its operands through the operator table.
//
// ARCHITECTURE:
//
// Arena + Index:
// Nodes never hold pointers to each other. Operand edges are NodeIDs, and every
// read or gradient mutation goes through the owning Session. A Handle pairs a
// NodeID with its Session so the builder can reject cross-session operands.
//
// Operator Table:
// Each Op carries its arity, forward formula and local-derivative rule as data
// (see ops.go). Adding an operator means a new table entry and a builder
// function; the sequencer and backward engine stay unchanged.
//
// Gradient Discipline:
//   - Only the grad field of a node is mutable after insertion
//   - Backward accumulates with AddGrad, never overwrites operand gradients
//   - Calling Backward twice without ZeroGrad double-accumulates
//
// Concurrency:
// A Session is guarded by a mutex so that insertion and accumulation are
// serialized, but the engine itself is strictly sequential. Hosts sharing a
// session across goroutines still have to order their passes.
package graph
