package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"visgraph-planner/scenario"
	"visgraph-planner/visibility"
)

// Config is the planner server configuration, loaded from YAML.
type Config struct {
	// Server contains HTTP listener settings.
	Server ServerConfig `yaml:"server"`

	// Scenario contains the layout file and its decoding settings.
	Scenario ScenarioConfig `yaml:"scenario"`

	// Graph contains visibility graph build settings.
	Graph GraphConfig `yaml:"graph"`

	// Log contains logging settings.
	Log LogConfig `yaml:"log"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Addr       string `yaml:"addr" validate:"required"`
	CORSOrigin string `yaml:"cors_origin"`
}

// ScenarioConfig points at the GeoJSON layout.
type ScenarioConfig struct {
	Path            string  `yaml:"path" validate:"required"`
	SimplifyEpsilon float64 `yaml:"simplify_epsilon" validate:"gte=0"`
	SnapGrid        float64 `yaml:"snap_grid" validate:"gte=0"`
}

// GraphConfig contains build settings.
type GraphConfig struct {
	MaxNodes int `yaml:"max_nodes" validate:"gte=2"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// DefaultConfig returns sensible defaults. Scenario.Path has no default.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:       ":8080",
			CORSOrigin: "*",
		},
		Graph: GraphConfig{
			MaxNodes: visibility.DefaultMaxNodes,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads path over the defaults and validates the result. An
// empty path validates the defaults alone.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ScenarioOptions converts the scenario section for the loader.
func (c Config) ScenarioOptions() scenario.Options {
	return scenario.Options{
		SimplifyEpsilon: c.Scenario.SimplifyEpsilon,
		SnapGrid:        c.Scenario.SnapGrid,
	}
}

// GraphOptions converts the graph section for the builder.
func (c Config) GraphOptions() visibility.Options {
	return visibility.Options{MaxNodes: c.Graph.MaxNodes}
}
