package geometry

import (
	"fmt"
	"math"
)

// Segment is an immutable line segment from head to tail. Each endpoint
// carries its own inclusivity flag, consulted when a collision lands
// exactly on that endpoint.
type Segment struct {
	head, tail                   Point
	headInclusive, tailInclusive bool
}

// NewSegment creates a head-inclusive, tail-exclusive segment. A chain of
// segments built this way counts each shared point once.
func NewSegment(head, tail Point) Segment {
	return Segment{head: head, tail: tail, headInclusive: true}
}

// NewSegmentWith creates a segment with explicit endpoint inclusivity.
func NewSegmentWith(head, tail Point, headInclusive, tailInclusive bool) Segment {
	return Segment{
		head:          head,
		tail:          tail,
		headInclusive: headInclusive,
		tailInclusive: tailInclusive,
	}
}

// Head returns the head endpoint.
func (s Segment) Head() Point { return s.head }

// Tail returns the tail endpoint.
func (s Segment) Tail() Point { return s.tail }

// HeadInclusive reports whether a collision at the head counts.
func (s Segment) HeadInclusive() bool { return s.headInclusive }

// TailInclusive reports whether a collision at the tail counts.
func (s Segment) TailInclusive() bool { return s.tailInclusive }

// Reversed returns a copy with head and tail swapped. The flags stay with
// their position: the new head takes the old head's flag.
func (s Segment) Reversed() Segment {
	return Segment{
		head:          s.tail,
		tail:          s.head,
		headInclusive: s.headInclusive,
		tailInclusive: s.tailInclusive,
	}
}

// Length returns the Euclidean distance between head and tail.
func (s Segment) Length() float64 {
	return s.head.Distance(s.tail)
}

// Slope returns (head.Y - tail.Y) / (head.X - tail.X).
func (s Segment) Slope() (float64, error) {
	if s.IsDegenerate() {
		return 0, fmt.Errorf("slope of %v: %w", s, ErrDegenerateSegment)
	}
	if s.IsVertical() {
		return 0, fmt.Errorf("slope of %v: %w", s, ErrVerticalSegment)
	}
	return s.slope(), nil
}

// IsVertical reports whether head and tail share an X coordinate.
func (s Segment) IsVertical() bool {
	return s.head.X == s.tail.X
}

// IsDegenerate reports whether head and tail are the same point.
func (s Segment) IsDegenerate() bool {
	return s.head == s.tail
}

// Validate checks that both endpoints are finite and distinct.
func (s Segment) Validate() error {
	if err := s.head.Validate(); err != nil {
		return fmt.Errorf("segment head: %w", err)
	}
	if err := s.tail.Validate(); err != nil {
		return fmt.Errorf("segment tail: %w", err)
	}
	if s.IsDegenerate() {
		return fmt.Errorf("segment %v: %w", s, ErrDegenerateSegment)
	}
	return nil
}

// String formats the segment with brackets marking inclusive ends.
func (s Segment) String() string {
	l, r := "(", ")"
	if s.headInclusive {
		l = "["
	}
	if s.tailInclusive {
		r = "]"
	}
	return fmt.Sprintf("%s%v -> %v%s", l, s.head, s.tail, r)
}

func (s Segment) slope() float64 {
	return (s.head.Y - s.tail.Y) / (s.head.X - s.tail.X)
}

// intercept is c in y = m*x + c for the line through the head.
func (s Segment) intercept(m float64) float64 {
	return s.head.Y - m*s.head.X
}

// yAt evaluates the segment's line at x. The segment must not be vertical.
func (s Segment) yAt(x float64) float64 {
	m := s.slope()
	return m*x + s.intercept(m)
}

// Intersection returns the point where the infinite lines through a and b
// cross. It reports false for parallel or identical lines, for degenerate
// segments, and for results that are not finite. Collinear overlapping
// segments therefore never intersect. The result does not depend on the
// argument order.
func Intersection(a, b Segment) (Point, bool) {
	if a.IsDegenerate() || b.IsDegenerate() {
		return Point{}, false
	}

	av, bv := a.IsVertical(), b.IsVertical()
	var p Point
	switch {
	case av && bv:
		return Point{}, false
	case av:
		p = Point{X: a.head.X, Y: b.yAt(a.head.X)}
	case bv:
		p = Point{X: b.head.X, Y: a.yAt(b.head.X)}
	default:
		ma, mb := a.slope(), b.slope()
		if ma == mb {
			return Point{}, false
		}
		ca, cb := a.intercept(ma), b.intercept(mb)
		x := (ca - cb) / (mb - ma)

		// Evaluate y on the flatter line so both argument orders agree.
		m, c := ma, ca
		if flatter(mb, ma) {
			m, c = mb, cb
		}
		p = Point{X: x, Y: m*x + c}
	}

	if !p.IsFinite() {
		return Point{}, false
	}
	return p, true
}

// flatter reports whether slope m sorts before n: smaller magnitude first,
// then the smaller value.
func flatter(m, n float64) bool {
	am, an := math.Abs(m), math.Abs(n)
	if am != an {
		return am < an
	}
	return m < n
}

// Collides reports whether segments a and b touch, honouring endpoint
// inclusivity. The result is not symmetric in general: when the crossing
// lands on an endpoint of both, a's flag is consulted first.
func Collides(a, b Segment) bool {
	p, ok := Intersection(a, b)
	if !ok {
		return false
	}

	// Shared endpoints resolve from the flags alone.
	switch {
	case a.tail == b.tail:
		return a.tailInclusive && b.tailInclusive
	case a.head == b.head:
		return a.headInclusive && b.headInclusive
	case a.tail == b.head:
		return a.tailInclusive && b.headInclusive
	case a.head == b.tail:
		return a.headInclusive && b.tailInclusive
	}

	if !a.spans(p) || !b.spans(p) {
		return false
	}

	switch p {
	case a.head:
		return a.headInclusive
	case a.tail:
		return a.tailInclusive
	case b.head:
		return b.headInclusive
	case b.tail:
		return b.tailInclusive
	}
	return true
}

// spans reports whether p lies inside the closed bounding box of s.
func (s Segment) spans(p Point) bool {
	return p.X >= math.Min(s.head.X, s.tail.X) && p.X <= math.Max(s.head.X, s.tail.X) &&
		p.Y >= math.Min(s.head.Y, s.tail.Y) && p.Y <= math.Max(s.head.Y, s.tail.Y)
}
