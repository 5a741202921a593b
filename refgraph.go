// ABOUTME: Root refgraph package providing version information and package documentation
// ABOUTME: The extraction core lives in graph; providers in snapshot and provider/

// Package refgraph extracts reference graphs from populations of runtime
// objects for debugging memory retention and reference cycles.
//
// The graph package turns any Provider into nodes and Named or Indirect
// edges, optionally restricted to the objects that can reach an anchor.
// Providers exist for serialized snapshots (JSON, YAML and Go heap dumps)
// and for live Go values. The analysis package answers retention
// questions on the result: paths to the root, dominators, retained counts
// and cycles.
package refgraph

// Version is the semantic version of the refgraph tool
const Version = "0.2.0"
