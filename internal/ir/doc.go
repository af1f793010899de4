// Package ir provides the declarative types shared by the compiler, engine,
// harness and CLI.
//
// A GraphSpec names a set of nodes (leaves and operator applications over
// other node names) and a root. A Report captures the forward data and the
// gradients of every node after one or more backward passes.
//
// This package contains type definitions and serialization only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Node names are NFC-normalized at the serialization boundary
//   - Reports list nodes in creation order
//   - All JSON tags use snake_case
package ir
