package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"visgraph-planner/geometry"
	"visgraph-planner/visibility"
)

type RouteRequest struct {
	Start geometry.Point `json:"start"`
	End   geometry.Point `json:"end"`
}

type RouteResponse struct {
	Path     []geometry.Point `json:"path"`
	Success  bool             `json:"success"`
	Message  string           `json:"message,omitempty"`
	Distance float64          `json:"distance,omitempty"`
}

type ProbeRequest struct {
	From geometry.Point `json:"from"`
	To   geometry.Point `json:"to"`
}

type ProbeResponse struct {
	Visible bool     `json:"visible"`
	Hit     *WallHit `json:"hit,omitempty"`
}

// WallHit is the nearest wall crossed by a probe.
type WallHit struct {
	Head     geometry.Point `json:"head"`
	Tail     geometry.Point `json:"tail"`
	At       geometry.Point `json:"at"`
	Distance float64        `json:"distance"`
}

type NodeRequest struct {
	Point geometry.Point `json:"point"`
}

// BoundingBox mirrors orb.Bound with named corners.
type BoundingBox struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

func boundingBox(b orb.Bound) BoundingBox {
	return BoundingBox{MinX: b.Min[0], MinY: b.Min[1], MaxX: b.Max[0], MaxY: b.Max[1]}
}

type requestIDKey struct{}

// planner serves one visibility graph. Every graph access holds mu: route
// queries insert temporary nodes, so reads mutate too.
type planner struct {
	mu       sync.Mutex
	graph    *visibility.Graph
	bound    orb.Bound
	snapGrid float64

	logger   *slog.Logger
	metrics  *metrics
	registry *prometheus.Registry
}

func newPlanner(g *visibility.Graph, bound orb.Bound, snapGrid float64, logger *slog.Logger) *planner {
	reg := prometheus.NewRegistry()
	p := &planner{
		graph:    g,
		bound:    bound,
		snapGrid: snapGrid,
		logger:   logger,
		metrics:  newMetrics(reg),
		registry: reg,
	}
	p.updateGauges()
	return p
}

// routes wires every endpoint behind the CORS and request id middleware.
func (p *planner) routes(corsOrigin string) http.Handler {
	mux := http.NewServeMux()
	wrap := func(h http.HandlerFunc) http.Handler {
		return requestIDMiddleware(corsMiddleware(corsOrigin, h))
	}

	mux.Handle("/route", wrap(p.routeHandler))
	mux.Handle("/probe", wrap(p.probeHandler))
	mux.Handle("/nodes", wrap(p.nodesHandler))
	mux.Handle("/graph/lines", wrap(p.graphLinesHandler))
	mux.Handle("/health", wrap(p.healthHandler))
	mux.Handle("/metrics", promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
	return mux
}

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(origin string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		}

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// requestIDMiddleware tags each request with an id, reusing the caller's
// X-Request-ID when present.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (p *planner) requestLogger(r *http.Request) *slog.Logger {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return p.logger.With("request_id", id, "method", r.Method, "path", r.URL.Path)
}

// snap aligns request coordinates with the grid the scenario was loaded on.
func (p *planner) snap(pt geometry.Point) geometry.Point {
	return geometry.Snap(pt, p.snapGrid)
}

// updateGauges must be called with mu held or before serving.
func (p *planner) updateGauges() {
	p.metrics.graphNodes.Set(float64(p.graph.Len()))
	p.metrics.graphEdges.Set(float64(p.graph.EdgeCount()))
}

// POST /route - shortest path between two arbitrary points
func (p *planner) routeHandler(w http.ResponseWriter, r *http.Request) {
	log := p.requestLogger(r)

	if r.Method != http.MethodPost {
		log.Warn("method not allowed")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request body", "err", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	start, end := p.snap(req.Start), p.snap(req.End)

	began := time.Now()
	p.mu.Lock()
	path, found, err := p.graph.FindPath(start, end)
	p.mu.Unlock()
	p.metrics.routeDuration.Observe(time.Since(began).Seconds())

	if err != nil {
		p.metrics.routeRequests.WithLabelValues("invalid").Inc()
		log.Warn("route rejected", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	response := RouteResponse{Path: path, Success: found}
	if found {
		response.Distance = visibility.PathLength(path)
		p.metrics.routeRequests.WithLabelValues("found").Inc()
		log.Info("path found",
			"start", start,
			"end", end,
			"waypoints", len(path),
			"distance", response.Distance,
		)
	} else {
		response.Message = "No path found"
		p.metrics.routeRequests.WithLabelValues("not_found").Inc()
		log.Info("no path found", "start", start, "end", end)
	}

	writeJSON(w, http.StatusOK, response)
}

// POST /probe - line of sight and the nearest wall crossed
func (p *planner) probeHandler(w http.ResponseWriter, r *http.Request) {
	log := p.requestLogger(r)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ProbeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request body", "err", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	from, to := p.snap(req.From), p.snap(req.To)

	// Collisions are measured from the probe's tail, so the segment runs
	// to -> from with flags matching NewSegment(from, to). Endpoint rules
	// match LineOfSight; the line equation is evaluated from the other end,
	// so a crossing within rounding of an endpoint may be judged differently.
	probe := geometry.NewSegmentWith(to, from, false, true)
	if err := probe.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	hit, crossed := p.graph.Obstacles().NearestCollision(probe)
	p.mu.Unlock()

	response := ProbeResponse{Visible: !crossed}
	if crossed {
		response.Hit = &WallHit{
			Head:     hit.Wall.Head(),
			Tail:     hit.Wall.Tail(),
			At:       hit.At,
			Distance: hit.Distance,
		}
	}
	log.Debug("probe", "from", from, "to", to, "visible", response.Visible)

	writeJSON(w, http.StatusOK, response)
}

// POST /nodes registers a waypoint, DELETE /nodes removes one.
func (p *planner) nodesHandler(w http.ResponseWriter, r *http.Request) {
	log := p.requestLogger(r)

	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req NodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request body", "err", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	node := p.snap(req.Point)

	p.mu.Lock()
	defer p.mu.Unlock()

	if r.Method == http.MethodDelete {
		removed := p.graph.Remove(node)
		p.updateGauges()
		log.Info("node removed", "node", node, "removed", removed)
		writeJSON(w, http.StatusOK, map[string]any{
			"removed":  removed,
			"numNodes": p.graph.Len(),
		})
		return
	}

	added, err := p.graph.Insert(node)
	if err != nil {
		log.Warn("insert rejected", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	children, err := p.graph.Children(node)
	if err != nil && !errors.Is(err, visibility.ErrNodeNotFound) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	p.updateGauges()
	log.Info("node inserted", "node", node, "added", added, "children", len(children))

	writeJSON(w, http.StatusOK, map[string]any{
		"added":    added,
		"children": children,
		"numNodes": p.graph.Len(),
	})
}

// GET /graph/lines - graph edges as line strings for visualization
func (p *planner) graphLinesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	p.mu.Lock()
	edges := p.graph.Edges()
	numNodes := p.graph.Len()
	p.mu.Unlock()

	lines := make([][]geometry.Point, 0, len(edges))
	for _, e := range edges {
		lines = append(lines, []geometry.Point{e.A, e.B})
	}
	p.requestLogger(r).Debug("returning graph lines", "lines", len(lines))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"lines":    lines,
		"numNodes": numNodes,
		"numEdges": len(lines),
	})
}

// GET /health - Health check endpoint
func (p *planner) healthHandler(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	numNodes := p.graph.Len()
	numEdges := p.graph.EdgeCount()
	numWalls := p.graph.Obstacles().Len()
	p.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ready",
		"numNodes":    numNodes,
		"numEdges":    numEdges,
		"numWalls":    numWalls,
		"boundingBox": boundingBox(p.bound),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
