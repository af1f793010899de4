// Package compiler turns CUE graph definitions into ir.GraphSpec values.
//
// A definition lives under the top-level "graph" field:
//
//	graph: chain: {
//		root: "s2"
//		nodes: {
//			a:  leaf: 1.0
//			b:  leaf: 2.0
//			s1: add: ["a", "b"]
//			s2: add: ["s1", "a"]
//		}
//	}
//
// Nodes may be declared in any order. The compiler resolves operand names,
// rejects definition cycles and emits nodes so that every operand precedes
// its consumers, which is the order the engine inserts them into a session.
package compiler
