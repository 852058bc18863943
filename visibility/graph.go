package visibility

import (
	"fmt"
	"math"
	"slices"
	"time"

	"visgraph-planner/geometry"
	"visgraph-planner/obstacle"
)

// Default build configuration values.
const (
	// DefaultMaxNodes is the largest node count a build accepts. The build
	// performs one wall scan per node pair, so cost grows quadratically.
	DefaultMaxNodes = 1000

	// pairWarnThreshold is the pair count above which a build logs a warning.
	pairWarnThreshold = 100000
)

// Options configures graph construction.
type Options struct {
	// MaxNodes is the maximum number of distinct nodes at build time.
	// Nodes inserted later are not counted against it.
	// Default: 1000
	MaxNodes int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{MaxNodes: DefaultMaxNodes}
}

// Edge is an undirected visibility edge.
type Edge struct {
	A, B geometry.Point
	Cost float64 // Euclidean length
}

// Graph maps each node to the set of nodes it can see.
type Graph struct {
	obstacles *obstacle.Index
	neighbors map[geometry.Point]map[geometry.Point]struct{}
}

// New builds a graph from a flat wall coordinate list (see
// obstacle.NewIndexFromCoords) and a node list.
func New(wallCoords, nodes []geometry.Point) (*Graph, error) {
	ix, err := obstacle.NewIndexFromCoords(wallCoords)
	if err != nil {
		return nil, fmt.Errorf("build obstacles: %w", err)
	}
	return Build(ix, nodes, DefaultOptions())
}

// Build constructs the graph over nodes against the walls of ix. Duplicate
// nodes are merged. Every unordered pair is tested once, with the node that
// appears first in nodes as the probe's head. The graph takes ownership of ix;
// a nil ix means no walls.
func Build(ix *obstacle.Index, nodes []geometry.Point, opts Options) (*Graph, error) {
	if ix == nil {
		ix = obstacle.NewIndex()
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}

	unique := make([]geometry.Point, 0, len(nodes))
	seen := make(map[geometry.Point]struct{}, len(nodes))
	for i, n := range nodes {
		if !n.IsFinite() {
			return nil, fmt.Errorf("node %d %v: %w", i, n, ErrInvalidPoint)
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		unique = append(unique, n)
	}

	if len(unique) < 2 {
		return nil, fmt.Errorf("%d distinct nodes: %w", len(unique), ErrTooFewNodes)
	}
	if len(unique) > opts.MaxNodes {
		return nil, fmt.Errorf("%d nodes, limit %d: %w", len(unique), opts.MaxNodes, ErrTooManyNodes)
	}

	logger := Logger()
	start := time.Now()
	pairs := len(unique) * (len(unique) - 1) / 2
	logger.Debug("building visibility graph",
		"nodes", len(unique),
		"walls", ix.Len(),
		"pairs", pairs,
	)
	if pairs > pairWarnThreshold {
		logger.Warn("large visibility graph build", "pairs", pairs)
	}

	g := &Graph{
		obstacles: ix,
		neighbors: make(map[geometry.Point]map[geometry.Point]struct{}, len(unique)),
	}
	for _, n := range unique {
		g.neighbors[n] = make(map[geometry.Point]struct{})
	}

	edges := 0
	for i, u := range unique {
		for _, v := range unique[i+1:] {
			if g.LineOfSight(u, v) {
				g.link(u, v)
				edges++
			}
		}
	}

	logger.Debug("visibility graph built",
		"edges", edges,
		"duration", time.Since(start),
	)
	return g, nil
}

// Obstacles returns the wall index the graph tests against.
func (g *Graph) Obstacles() *obstacle.Index {
	return g.obstacles
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.neighbors)
}

// Contains reports whether node is registered.
func (g *Graph) Contains(node geometry.Point) bool {
	_, ok := g.neighbors[node]
	return ok
}

// Nodes returns every node, sorted by X then Y.
func (g *Graph) Nodes() []geometry.Point {
	nodes := make([]geometry.Point, 0, len(g.neighbors))
	for n := range g.neighbors {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, geometry.Compare)
	return nodes
}

// Children returns the nodes visible from node, sorted by X then Y.
func (g *Graph) Children(node geometry.Point) ([]geometry.Point, error) {
	set, ok := g.neighbors[node]
	if !ok {
		return nil, fmt.Errorf("children of %v: %w", node, ErrNodeNotFound)
	}
	return sortedSet(set), nil
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, set := range g.neighbors {
		n += len(set)
	}
	return n / 2
}

// Edges returns each undirected edge once, with A sorting before B.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.EdgeCount())
	for _, a := range g.Nodes() {
		for b := range g.neighbors[a] {
			if geometry.Compare(a, b) < 0 {
				edges = append(edges, Edge{A: a, B: b, Cost: a.Distance(b)})
			}
		}
	}
	slices.SortFunc(edges, func(x, y Edge) int {
		if c := geometry.Compare(x.A, y.A); c != 0 {
			return c
		}
		return geometry.Compare(x.B, y.B)
	})
	return edges
}

// Insert adds node and links it to every existing node it can see. It
// returns false if node was already registered.
func (g *Graph) Insert(node geometry.Point) (bool, error) {
	if !node.IsFinite() {
		return false, fmt.Errorf("insert %v: %w", node, ErrInvalidPoint)
	}
	if g.Contains(node) {
		return false, nil
	}

	g.neighbors[node] = make(map[geometry.Point]struct{})
	for other := range g.neighbors {
		if other == node {
			continue
		}
		if g.LineOfSight(other, node) {
			g.link(other, node)
		}
	}
	return true, nil
}

// Remove deletes node and every edge touching it. It returns false if node
// was not registered.
func (g *Graph) Remove(node geometry.Point) bool {
	set, ok := g.neighbors[node]
	if !ok {
		return false
	}
	delete(g.neighbors, node)
	for other := range set {
		delete(g.neighbors[other], node)
	}
	return true
}

// LineOfSight reports whether the segment from a to b collides with no wall.
// Neither point has to be registered. It is false when either point has a
// NaN or infinite coordinate.
func (g *Graph) LineOfSight(a, b geometry.Point) bool {
	return !g.obstacles.Collides(geometry.NewSegment(a, b))
}

// VisibleFrom returns the registered nodes with line of sight from p,
// sorted by X then Y. p itself is excluded. A non-finite p sees nothing.
func (g *Graph) VisibleFrom(p geometry.Point) []geometry.Point {
	if !p.IsFinite() {
		return nil
	}
	var out []geometry.Point
	for _, n := range g.Nodes() {
		if n != p && g.LineOfSight(p, n) {
			out = append(out, n)
		}
	}
	return out
}

// NearestNode finds the closest node to p. It reports false on an empty
// graph, which only happens after every node has been removed.
func (g *Graph) NearestNode(p geometry.Point) (geometry.Point, float64, bool) {
	var (
		nearest geometry.Point
		minDist = math.Inf(1)
		found   bool
	)
	for _, n := range g.Nodes() {
		if d := p.Distance(n); d < minDist {
			nearest, minDist, found = n, d, true
		}
	}
	return nearest, minDist, found
}

func (g *Graph) link(a, b geometry.Point) {
	g.neighbors[a][b] = struct{}{}
	g.neighbors[b][a] = struct{}{}
}

func sortedSet(set map[geometry.Point]struct{}) []geometry.Point {
	out := make([]geometry.Point, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	slices.SortFunc(out, geometry.Compare)
	return out
}
