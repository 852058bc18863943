package visibility

import (
	"cmp"
	"container/heap"
	"fmt"
	"slices"

	"visgraph-planner/geometry"
)

// pathEntry is a frontier element for the uniform-cost search
type pathEntry struct {
	node  geometry.Point
	dist  float64 // cumulative length from start
	seq   int     // push order, breaks ties
	index int     // index in the heap
}

// frontier implements heap.Interface ordered by dist, then seq
type frontier []*pathEntry

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].dist != f[j].dist {
		return f[i].dist < f[j].dist
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) {
	f[i], f[j] = f[j], f[i]
	f[i].index = i
	f[j].index = j
}

func (f *frontier) Push(x any) {
	e := x.(*pathEntry)
	e.index = len(*f)
	*f = append(*f, e)
}

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*f = old[:n-1]
	return e
}

// ShortestPath returns the shortest node sequence from start to end, both
// of which must be registered. The bool is false when end is unreachable.
// Equal-length alternatives are resolved by discovery order, and neighbours
// are expanded in sorted order, so results are deterministic.
func (g *Graph) ShortestPath(start, end geometry.Point) ([]geometry.Point, bool, error) {
	if !g.Contains(start) {
		return nil, false, fmt.Errorf("start %v: %w", start, ErrNodeNotFound)
	}
	if !g.Contains(end) {
		return nil, false, fmt.Errorf("end %v: %w", end, ErrNodeNotFound)
	}
	if start == end {
		return []geometry.Point{start}, true, nil
	}

	dist := map[geometry.Point]float64{start: 0}
	prev := make(map[geometry.Point]geometry.Point)
	finished := make(map[geometry.Point]bool)

	open := &frontier{}
	heap.Init(open)
	heap.Push(open, &pathEntry{node: start})
	seq := 0

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathEntry)
		if finished[current.node] || current.dist > dist[current.node] {
			continue // stale entry
		}
		finished[current.node] = true

		if current.node == end {
			return reconstruct(prev, start, end), true, nil
		}

		for _, next := range sortedSet(g.neighbors[current.node]) {
			if finished[next] {
				continue
			}
			d := current.dist + current.node.Distance(next)
			if best, ok := dist[next]; ok && d >= best {
				continue
			}
			dist[next] = d
			prev[next] = current.node
			seq++
			heap.Push(open, &pathEntry{node: next, dist: d, seq: seq})
		}
	}

	return nil, false, nil
}

func reconstruct(prev map[geometry.Point]geometry.Point, start, end geometry.Point) []geometry.Point {
	path := []geometry.Point{end}
	for at := end; at != start; {
		at = prev[at]
		path = append(path, at)
	}
	slices.Reverse(path)
	return path
}

// FindPath returns the shortest path between two arbitrary points. Points
// that are not registered are inserted for the duration of the query and
// removed before returning, whatever the outcome. Identical start and end
// yield no path.
func (g *Graph) FindPath(start, end geometry.Point) ([]geometry.Point, bool, error) {
	if start == end {
		return nil, false, nil
	}
	if !start.IsFinite() {
		return nil, false, fmt.Errorf("start %v: %w", start, ErrInvalidPoint)
	}
	if !end.IsFinite() {
		return nil, false, fmt.Errorf("end %v: %w", end, ErrInvalidPoint)
	}

	logger := Logger()

	added, err := g.Insert(start)
	if err != nil {
		return nil, false, err
	}
	if added {
		logger.Debug("inserted temporary node", "node", start)
		defer g.Remove(start)
	}

	added, err = g.Insert(end)
	if err != nil {
		return nil, false, err
	}
	if added {
		logger.Debug("inserted temporary node", "node", end)
		defer g.Remove(end)
	}

	return g.ShortestPath(start, end)
}

// SortByDistance orders points by ascending Euclidean distance from origin.
// Points at equal distance keep their relative order.
func SortByDistance(origin geometry.Point, points []geometry.Point) {
	slices.SortStableFunc(points, func(a, b geometry.Point) int {
		return cmp.Compare(origin.Distance(a), origin.Distance(b))
	})
}

// PathLength returns the summed segment lengths of path.
func PathLength(path []geometry.Point) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += path[i-1].Distance(path[i])
	}
	return total
}
