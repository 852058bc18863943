// Package scenario decodes wall and waypoint layouts from GeoJSON.
//
// LineString and MultiLineString features are wall polylines: every pair of
// consecutive vertices becomes one wall, the earlier vertex being its head.
// Point and MultiPoint features are waypoints. Other geometry types are
// skipped.
package scenario

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"

	"visgraph-planner/geometry"
	"visgraph-planner/obstacle"
	"visgraph-planner/visibility"
)

// ErrEmptyScenario is returned when a file contains no walls and no nodes.
var ErrEmptyScenario = errors.New("scenario has no walls and no nodes")

// Options configures decoding.
type Options struct {
	// SimplifyEpsilon is the Douglas-Peucker threshold applied to each wall
	// polyline. Zero disables simplification.
	SimplifyEpsilon float64

	// SnapGrid rounds every coordinate to a multiple of this value so that
	// nearly equal vertices become the same node. Zero disables snapping.
	SnapGrid float64

	// Logger receives warnings about skipped features. May be nil.
	Logger *slog.Logger
}

// Scenario is a decoded layout.
type Scenario struct {
	// Walls is a flat coordinate list, two points per wall.
	Walls []geometry.Point

	// Nodes are the waypoints in file order.
	Nodes []geometry.Point

	// Bound covers every wall vertex and node.
	Bound orb.Bound
}

// LoadFile reads and decodes a GeoJSON FeatureCollection file.
func LoadFile(path string, opts Options) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	sc, err := Decode(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// LoadDir merges every *.geojson file in dir, in lexical order. Files that
// cannot be read or parsed are logged and skipped.
func LoadDir(dir string, opts Options) (*Scenario, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.geojson"))
	if err != nil {
		return nil, err
	}
	logger := loggerOf(opts)
	logger.Info("loading scenario directory", "dir", dir, "files", len(files))

	var merged *Scenario
	for _, file := range files {
		sc, err := LoadFile(file, opts)
		if err != nil {
			logger.Warn("skipping scenario file", "file", filepath.Base(file), "err", err)
			continue
		}
		if merged == nil {
			merged = sc
			continue
		}
		merged.merge(sc)
	}

	if merged == nil {
		return nil, fmt.Errorf("%s: %w", dir, ErrEmptyScenario)
	}
	logger.Info("scenario directory loaded",
		"dir", dir,
		"walls", len(merged.Walls)/2,
		"nodes", len(merged.Nodes),
	)
	return merged, nil
}

// Load reads path with LoadDir if it is a directory and LoadFile otherwise.
func Load(path string, opts Options) (*Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path, opts)
	}
	return LoadFile(path, opts)
}

// Decode parses a GeoJSON FeatureCollection.
func Decode(data []byte, opts Options) (*Scenario, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}

	logger := loggerOf(opts)

	sc := &Scenario{}
	var bound orb.Bound
	first := true
	grow := func(g orb.Geometry) {
		if first {
			bound, first = g.Bound(), false
			return
		}
		bound = bound.Union(g.Bound())
	}

	for i, f := range fc.Features {
		if f.Geometry == nil {
			logger.Warn("skipping feature without geometry", "feature", i)
			continue
		}

		switch g := f.Geometry.(type) {
		case orb.LineString:
			sc.addPolyline(g, opts)
			grow(g)
		case orb.MultiLineString:
			for _, ls := range g {
				sc.addPolyline(ls, opts)
			}
			grow(g)
		case orb.Point:
			sc.Nodes = append(sc.Nodes, snap(g, opts.SnapGrid))
			grow(g)
		case orb.MultiPoint:
			for _, p := range g {
				sc.Nodes = append(sc.Nodes, snap(p, opts.SnapGrid))
			}
			grow(g)
		default:
			logger.Warn("skipping unsupported geometry",
				"feature", i,
				"type", f.Geometry.GeoJSONType(),
			)
		}
	}

	if len(sc.Walls) == 0 && len(sc.Nodes) == 0 {
		return nil, ErrEmptyScenario
	}
	sc.Bound = bound

	logger.Debug("scenario decoded",
		"features", len(fc.Features),
		"walls", len(sc.Walls)/2,
		"nodes", len(sc.Nodes),
	)
	return sc, nil
}

// Obstacles builds the wall index for the scenario.
func (sc *Scenario) Obstacles() (*obstacle.Index, error) {
	ix, err := obstacle.NewIndexFromCoords(sc.Walls)
	if err != nil {
		return nil, fmt.Errorf("scenario walls: %w", err)
	}
	return ix, nil
}

// Graph builds the visibility graph for the scenario.
func (sc *Scenario) Graph(opts visibility.Options) (*visibility.Graph, error) {
	ix, err := sc.Obstacles()
	if err != nil {
		return nil, err
	}
	return visibility.Build(ix, sc.Nodes, opts)
}

// addPolyline appends one wall per consecutive vertex pair. Zero-length
// pieces, which snapping can produce, are dropped.
func (sc *Scenario) addPolyline(ls orb.LineString, opts Options) {
	if opts.SimplifyEpsilon > 0 && len(ls) > 2 {
		ls = simplify.DouglasPeucker(opts.SimplifyEpsilon).LineString(ls.Clone())
	}

	for i := 1; i < len(ls); i++ {
		head := snap(ls[i-1], opts.SnapGrid)
		tail := snap(ls[i], opts.SnapGrid)
		if head == tail {
			continue
		}
		sc.Walls = append(sc.Walls, head, tail)
	}
}

func (sc *Scenario) merge(other *Scenario) {
	sc.Walls = append(sc.Walls, other.Walls...)
	sc.Nodes = append(sc.Nodes, other.Nodes...)
	sc.Bound = sc.Bound.Union(other.Bound)
}

func loggerOf(opts Options) *slog.Logger {
	if opts.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return opts.Logger
}

func snap(p orb.Point, grid float64) geometry.Point {
	return geometry.Snap(geometry.FromOrb(p), grid)
}
