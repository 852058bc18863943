package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Point is a 2D coordinate. It is used as a map key by the visibility graph.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance calculates Euclidean distance between two points
func (p Point) Distance(other Point) float64 {
	return planar.Distance(p.Orb(), other.Orb())
}

// IsFinite reports whether neither coordinate is NaN or infinite.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Validate returns ErrNonFinite if the point has a NaN or infinite coordinate.
func (p Point) Validate() error {
	if !p.IsFinite() {
		return fmt.Errorf("point (%v, %v): %w", p.X, p.Y, ErrNonFinite)
	}
	return nil
}

// Orb converts the point to an orb.Point.
func (p Point) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

// FromOrb converts an orb.Point.
func FromOrb(p orb.Point) Point {
	return Point{X: p.X(), Y: p.Y()}
}

// String formats the point as (x, y).
func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Snap rounds both coordinates to the nearest multiple of grid. It is the
// quantization layer for inputs that come from independent computations and
// must unify as graph nodes. A grid <= 0 returns p unchanged.
func Snap(p Point, grid float64) Point {
	if grid <= 0 {
		return p
	}
	return Point{
		X: math.Round(p.X/grid) * grid,
		Y: math.Round(p.Y/grid) * grid,
	}
}

// Compare orders points by X, then by Y. It returns -1, 0 or +1.
func Compare(a, b Point) int {
	switch {
	case a.X < b.X:
		return -1
	case a.X > b.X:
		return 1
	case a.Y < b.Y:
		return -1
	case a.Y > b.Y:
		return 1
	}
	return 0
}
