package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visgraph-planner/geometry"
	"visgraph-planner/visibility"
)

const corridor = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "north wall"},
      "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 0], [2, 0.5]]}
    },
    {
      "type": "Feature",
      "properties": {},
      "geometry": {"type": "Point", "coordinates": [0, 1]}
    },
    {
      "type": "Feature",
      "properties": {},
      "geometry": {"type": "MultiPoint", "coordinates": [[1, 1], [0, -1], [1, -1]]}
    },
    {
      "type": "Feature",
      "properties": {"name": "ignored"},
      "geometry": {"type": "Polygon", "coordinates": [[[5, 5], [6, 5], [6, 6], [5, 5]]]}
    }
  ]
}`

func TestDecode(t *testing.T) {
	sc, err := Decode([]byte(corridor), Options{})
	require.NoError(t, err)

	assert.Equal(t, []geometry.Point{
		geometry.Pt(0, 0), geometry.Pt(1, 0),
		geometry.Pt(1, 0), geometry.Pt(2, 0.5),
	}, sc.Walls)
	assert.Equal(t, []geometry.Point{
		geometry.Pt(0, 1), geometry.Pt(1, 1), geometry.Pt(0, -1), geometry.Pt(1, -1),
	}, sc.Nodes)
	assert.Equal(t, orb.Bound{Min: orb.Point{0, -1}, Max: orb.Point{2, 1}}, sc.Bound, "skipped features do not count")
}

func TestDecode_Graph(t *testing.T) {
	sc, err := Decode([]byte(corridor), Options{})
	require.NoError(t, err)

	g, err := sc.Graph(visibility.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())
	assert.Equal(t, 2, g.Obstacles().Len())
	assert.False(t, g.LineOfSight(geometry.Pt(0, 1), geometry.Pt(0, -1)))
}

func TestDecode_MultiLineString(t *testing.T) {
	data := `{"type": "FeatureCollection", "features": [{
		"type": "Feature", "properties": {},
		"geometry": {"type": "MultiLineString", "coordinates": [[[0, 0], [1, 1]], [[2, 2], [3, 2], [4, 3]]]}
	}]}`

	sc, err := Decode([]byte(data), Options{})
	require.NoError(t, err)
	assert.Len(t, sc.Walls, 6)
	assert.Empty(t, sc.Nodes)
}

func TestDecode_Simplify(t *testing.T) {
	data := `{"type": "FeatureCollection", "features": [{
		"type": "Feature", "properties": {},
		"geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 0.001], [2, 0], [3, 0.002], [4, 0]]}
	}]}`

	sc, err := Decode([]byte(data), Options{SimplifyEpsilon: 0.01})
	require.NoError(t, err)
	assert.Equal(t, []geometry.Point{geometry.Pt(0, 0), geometry.Pt(4, 0)}, sc.Walls)

	sc, err = Decode([]byte(data), Options{})
	require.NoError(t, err)
	assert.Len(t, sc.Walls, 8)
}

func TestDecode_Snap(t *testing.T) {
	data := `{"type": "FeatureCollection", "features": [
		{"type": "Feature", "properties": {},
		 "geometry": {"type": "LineString", "coordinates": [[0, 0], [0.0000001, 0.0000001], [1, 0.5]]}},
		{"type": "Feature", "properties": {},
		 "geometry": {"type": "Point", "coordinates": [0.4999999, 2.0000001]}}
	]}`

	sc, err := Decode([]byte(data), Options{SnapGrid: 0.001})
	require.NoError(t, err)
	assert.Equal(t, []geometry.Point{geometry.Pt(0, 0), geometry.Pt(1, 0.5)}, sc.Walls, "zero-length piece dropped")
	assert.Equal(t, []geometry.Point{geometry.Pt(0.5, 2)}, sc.Nodes)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte(`{"type": "FeatureCollection", "features": []}`), Options{})
	assert.ErrorIs(t, err, ErrEmptyScenario)

	_, err = Decode([]byte(`not json`), Options{})
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corridor.geojson")
	require.NoError(t, os.WriteFile(path, []byte(corridor), 0o644))

	sc, err := LoadFile(path, Options{})
	require.NoError(t, err)
	assert.Len(t, sc.Nodes, 4)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.geojson"), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	second := `{"type": "FeatureCollection", "features": [{
		"type": "Feature", "properties": {},
		"geometry": {"type": "LineString", "coordinates": [[5, 5], [6, 5]]}
	}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.geojson"), []byte(corridor), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.geojson"), []byte(second), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.geojson"), []byte("broken"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(second), 0o644))

	sc, err := LoadDir(dir, Options{})
	require.NoError(t, err)
	assert.Len(t, sc.Walls, 6, "broken and non-geojson files are skipped")
	assert.Equal(t, geometry.Pt(5, 5), sc.Walls[4])
	assert.Len(t, sc.Nodes, 4)
	assert.Equal(t, orb.Bound{Min: orb.Point{0, -1}, Max: orb.Point{6, 5}}, sc.Bound)

	_, err = LoadDir(t.TempDir(), Options{})
	assert.ErrorIs(t, err, ErrEmptyScenario)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corridor.geojson")
	require.NoError(t, os.WriteFile(path, []byte(corridor), 0o644))

	fromFile, err := Load(path, Options{})
	require.NoError(t, err)
	fromDir, err := Load(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, fromFile, fromDir)

	_, err = Load(filepath.Join(dir, "missing"), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
