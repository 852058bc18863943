// Command planner serves shortest paths through a visibility graph built
// from a GeoJSON wall layout.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"visgraph-planner/geometry"
	"visgraph-planner/scenario"
	"visgraph-planner/visibility"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "planner",
		Short:        "Shortest paths around walls on a visibility graph",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newRouteCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load a scenario and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "planner.yaml", "path to the YAML config file")
	return cmd
}

func serve(ctx context.Context, cfg Config) error {
	logger := newLogger(os.Stderr, cfg.Log)
	visibility.SetLogger(logger)

	scOpts := cfg.ScenarioOptions()
	scOpts.Logger = logger
	sc, err := scenario.Load(cfg.Scenario.Path, scOpts)
	if err != nil {
		return err
	}

	began := time.Now()
	g, err := sc.Graph(cfg.GraphOptions())
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}
	logger.Info("visibility graph built",
		"scenario", cfg.Scenario.Path,
		"walls", g.Obstacles().Len(),
		"nodes", g.Len(),
		"edges", g.EdgeCount(),
		"elapsed", time.Since(began),
	)

	p := newPlanner(g, sc.Bound, cfg.Scenario.SnapGrid, logger)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           p.routes(cfg.Server.CORSOrigin),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr, "cors_origin", cfg.Server.CORSOrigin)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouteCmd() *cobra.Command {
	var (
		scenarioPath string
		from, to     string
		maxNodes     int
		snapGrid     float64
		epsilon      float64
	)

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Compute one route offline and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parsePoint(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			end, err := parsePoint(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			sc, err := scenario.Load(scenarioPath, scenario.Options{
				SimplifyEpsilon: epsilon,
				SnapGrid:        snapGrid,
			})
			if err != nil {
				return err
			}
			g, err := sc.Graph(visibility.Options{MaxNodes: maxNodes})
			if err != nil {
				return err
			}

			start, end = geometry.Snap(start, snapGrid), geometry.Snap(end, snapGrid)
			path, found, err := g.FindPath(start, end)
			if err != nil {
				return err
			}

			response := RouteResponse{Path: path, Success: found}
			if found {
				response.Distance = visibility.PathLength(path)
			} else {
				response.Message = "No path found"
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(response)
		},
	}

	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "GeoJSON scenario file or directory")
	cmd.Flags().StringVar(&from, "from", "", "start point as x,y")
	cmd.Flags().StringVar(&to, "to", "", "end point as x,y")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", visibility.DefaultMaxNodes, "maximum number of graph nodes")
	cmd.Flags().Float64Var(&snapGrid, "snap-grid", 0, "round coordinates to this grid, 0 disables")
	cmd.Flags().Float64Var(&epsilon, "simplify", 0, "Douglas-Peucker threshold for wall polylines, 0 disables")
	_ = cmd.MarkFlagRequired("scenario")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// parsePoint reads "x,y".
func parsePoint(s string) (geometry.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geometry.Point{}, fmt.Errorf("want x,y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geometry.Point{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geometry.Point{}, err
	}
	p := geometry.Pt(x, y)
	if err := p.Validate(); err != nil {
		return geometry.Point{}, err
	}
	return p, nil
}
