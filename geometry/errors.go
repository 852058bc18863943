// Package geometry provides the planar primitives used by the obstacle index
// and the visibility graph: points, line segments with per-endpoint
// inclusivity, line intersection, and the bounded segment collision test.
//
// # Exact Comparison
//
// Points are compared with ==. Two points computed independently that are
// geometrically the same but differ in the last bit are different points.
// Callers that need tolerance should quantize at the boundary with Snap.
package geometry

import "errors"

// Sentinel errors for geometry operations.
var (
	// ErrVerticalSegment is returned when the slope of a segment with
	// identical head and tail X coordinates is requested.
	ErrVerticalSegment = errors.New("segment is vertical")

	// ErrDegenerateSegment is returned when head and tail are the same point.
	ErrDegenerateSegment = errors.New("segment has zero length")

	// ErrNonFinite is returned when a coordinate is NaN or infinite.
	ErrNonFinite = errors.New("coordinate is not finite")
)
