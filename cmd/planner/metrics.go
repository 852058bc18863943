package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the server's prometheus collectors.
type metrics struct {
	routeRequests *prometheus.CounterVec
	routeDuration prometheus.Histogram
	graphNodes    prometheus.Gauge
	graphEdges    prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		routeRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_route_requests_total",
			Help: "Route requests by outcome.",
		}, []string{"outcome"}),
		routeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_route_duration_seconds",
			Help:    "Time spent answering route requests, including temporary node insertion.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		graphNodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "planner_graph_nodes",
			Help: "Registered nodes in the visibility graph.",
		}),
		graphEdges: f.NewGauge(prometheus.GaugeOpts{
			Name: "planner_graph_edges",
			Help: "Undirected edges in the visibility graph.",
		}),
	}
}
