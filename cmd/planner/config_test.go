package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visgraph-planner/visibility"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "planner.yaml", `
server:
  addr: ":9090"
scenario:
  path: warehouse.geojson
  snap_grid: 0.001
log:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "*", cfg.Server.CORSOrigin, "unset fields keep their defaults")
	assert.Equal(t, "warehouse.geojson", cfg.Scenario.Path)
	assert.Equal(t, 0.001, cfg.Scenario.SnapGrid)
	assert.Equal(t, visibility.DefaultMaxNodes, cfg.Graph.MaxNodes)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.Equal(t, visibility.Options{MaxNodes: visibility.DefaultMaxNodes}, cfg.GraphOptions())
	scOpts := cfg.ScenarioOptions()
	assert.Equal(t, 0.001, scOpts.SnapGrid)
	assert.Zero(t, scOpts.SimplifyEpsilon)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing scenario", "server:\n  addr: \":8080\"\n"},
		{"bad level", "scenario:\n  path: a.geojson\nlog:\n  level: loud\n"},
		{"bad format", "scenario:\n  path: a.geojson\nlog:\n  format: xml\n"},
		{"negative snap grid", "scenario:\n  path: a.geojson\n  snap_grid: -1\n"},
		{"too few nodes", "scenario:\n  path: a.geojson\ngraph:\n  max_nodes: 1\n"},
		{"empty addr", "server:\n  addr: \"\"\nscenario:\n  path: a.geojson\n"},
		{"malformed", "scenario: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "planner.yaml", tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogConfig{Level: "warn", Format: "json"})

	logger.Info("dropped")
	logger.Warn("kept", "k", 1)

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"msg":"kept"`)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelError))
}
