package obstacle

import (
	"fmt"
	"math"
	"slices"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"visgraph-planner/geometry"
)

// R-tree branching, same shape as the polygon index this grew out of.
const (
	treeMinChildren = 25
	treeMaxChildren = 50
)

// wallEntry wraps a wall for R-tree storage
type wallEntry struct {
	wall  geometry.Segment
	order int // insertion position, used to visit candidates in a stable order
	bbox  rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *wallEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// Collision describes a wall hit by a probe.
type Collision struct {
	Wall     geometry.Segment
	At       geometry.Point
	Distance float64 // from the probe's tail to At
}

// Index is an unordered, deduplicated set of walls.
type Index struct {
	entries []*wallEntry
	seen    map[geometry.Segment]struct{}
	tree    *rtreego.Rtree
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		seen: make(map[geometry.Segment]struct{}),
		tree: rtreego.NewTree(2, treeMinChildren, treeMaxChildren),
	}
}

// NewIndexFromCoords builds an index from a flat coordinate list where each
// consecutive pair is one wall, the first point of the pair being its head.
func NewIndexFromCoords(coords []geometry.Point) (*Index, error) {
	if len(coords)%2 != 0 {
		return nil, fmt.Errorf("%d coordinates: %w", len(coords), ErrOddCoordinates)
	}

	ix := NewIndex()
	for i := 0; i < len(coords); i += 2 {
		if err := ix.Add(geometry.NewSegment(coords[i], coords[i+1])); err != nil {
			return nil, fmt.Errorf("wall %d: %w", i/2, err)
		}
	}
	return ix, nil
}

// Add stores a copy of wall. Adding a wall already present is a no-op.
func (ix *Index) Add(wall geometry.Segment) error {
	if err := wall.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWall, err)
	}
	if _, ok := ix.seen[wall]; ok {
		return nil
	}

	bbox, err := segmentBounds(wall)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWall, err)
	}

	entry := &wallEntry{wall: wall, order: len(ix.entries), bbox: bbox}
	ix.entries = append(ix.entries, entry)
	ix.seen[wall] = struct{}{}
	ix.tree.Insert(entry)
	return nil
}

// Len returns the number of distinct walls.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Walls returns the walls in insertion order.
func (ix *Index) Walls() []geometry.Segment {
	walls := make([]geometry.Segment, len(ix.entries))
	for i, e := range ix.entries {
		walls[i] = e.wall
	}
	return walls
}

// Bounds returns the bounding box of every wall endpoint. An empty index
// returns the zero bound.
func (ix *Index) Bounds() orb.Bound {
	if len(ix.entries) == 0 {
		return orb.Bound{}
	}
	b := ix.entries[0].wall.Head().Orb().Bound()
	for _, e := range ix.entries {
		b = b.Extend(e.wall.Head().Orb()).Extend(e.wall.Tail().Orb())
	}
	return b
}

// Collides reports whether probe collides with any wall. A probe with a NaN
// or infinite endpoint always collides, even with an empty index.
func (ix *Index) Collides(probe geometry.Segment) bool {
	if !finite(probe) {
		return true
	}
	for _, e := range ix.candidates(probe) {
		if geometry.Collides(e.wall, probe) {
			return true
		}
	}
	return false
}

// NearestCollision returns the colliding wall whose intersection with probe
// is closest to the probe's tail. Among equally close walls the one added
// first wins. A non-finite probe has no crossing point and reports false;
// Collides still treats it as blocked.
func (ix *Index) NearestCollision(probe geometry.Segment) (Collision, bool) {
	var (
		best  Collision
		found bool
	)
	for _, e := range ix.candidates(probe) {
		if !geometry.Collides(e.wall, probe) {
			continue
		}
		at, ok := geometry.Intersection(e.wall, probe)
		if !ok {
			continue
		}
		d := at.Distance(probe.Tail())
		if !found || d < best.Distance {
			best = Collision{Wall: e.wall, At: at, Distance: d}
			found = true
		}
	}
	return best, found
}

// candidates returns walls whose bounding box overlaps the probe's, in
// insertion order. A wall can only collide with the probe if the crossing
// point lies in both closed boxes, so nothing is missed.
func (ix *Index) candidates(probe geometry.Segment) []*wallEntry {
	if len(ix.entries) == 0 || !finite(probe) {
		return nil
	}
	bbox, err := segmentBounds(probe)
	if err != nil {
		return ix.entries
	}

	hits := ix.tree.SearchIntersect(bbox)
	out := make([]*wallEntry, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*wallEntry))
	}
	slices.SortFunc(out, func(a, b *wallEntry) int {
		return a.order - b.order
	})
	return out
}

func finite(s geometry.Segment) bool {
	return s.Head().IsFinite() && s.Tail().IsFinite()
}

// segmentBounds computes a padded axis-aligned box for s. The padding keeps
// boxes of horizontal and vertical segments non-empty and makes touching
// boxes overlap.
func segmentBounds(s geometry.Segment) (rtreego.Rect, error) {
	h, t := s.Head(), s.Tail()
	minX, maxX := math.Min(h.X, t.X), math.Max(h.X, t.X)
	minY, maxY := math.Min(h.Y, t.Y), math.Max(h.Y, t.Y)

	scale := math.Max(math.Max(math.Abs(minX), math.Abs(maxX)), math.Max(math.Abs(minY), math.Abs(maxY)))
	pad := 1e-9 * math.Max(1, scale)

	return rtreego.NewRect(
		rtreego.Point{minX - pad, minY - pad},
		[]float64{maxX - minX + 2*pad, maxY - minY + 2*pad},
	)
}
