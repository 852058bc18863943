// Package visibility builds a visibility graph over a set of waypoints and
// answers shortest-path queries on it.
//
// An edge joins two nodes iff the straight segment between them does not
// collide with any wall of the graph's obstacle index. Nodes are keyed by
// exact Point equality.
//
// # Thread Safety
//
// Graph is NOT safe for concurrent use. FindPath mutates the graph while it
// runs (temporary start and end nodes), so even path queries need exclusive
// access. Callers sharing a Graph must serialize every call.
//
// # Lifecycle
//
//  1. Build with New, or Build over an existing obstacle.Index
//  2. Add or drop waypoints with Insert and Remove
//  3. Query with Children, LineOfSight, ShortestPath and FindPath
package visibility

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrTooFewNodes is returned when a graph is built from fewer than two
	// distinct nodes.
	ErrTooFewNodes = errors.New("at least two nodes are required")

	// ErrTooManyNodes is returned when a build would exceed the configured
	// node limit.
	ErrTooManyNodes = errors.New("maximum node count exceeded")

	// ErrNodeNotFound is returned when a query names a point that is not a
	// registered node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidPoint is returned for points with NaN or infinite coordinates.
	ErrInvalidPoint = errors.New("invalid point")
)
