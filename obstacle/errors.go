// Package obstacle holds the set of wall segments a probe segment is tested
// against.
//
// # Thread Safety
//
// Index is NOT safe for concurrent use. It has a single owner; callers that
// share one across goroutines must serialize access themselves.
package obstacle

import "errors"

// Sentinel errors for obstacle index construction.
var (
	// ErrOddCoordinates is returned when a flat coordinate list cannot be
	// paired into walls.
	ErrOddCoordinates = errors.New("odd number of wall coordinates")

	// ErrInvalidWall is returned for walls with non-finite or coincident
	// endpoints.
	ErrInvalidWall = errors.New("invalid wall")
)
