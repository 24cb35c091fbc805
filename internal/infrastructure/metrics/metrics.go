// Package metrics provides Prometheus collectors for the HTTP API and the
// kinship engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kin"

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	HTTPRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter",
		},
	)

	// Propagation engine metrics
	RelationshipsAsserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "propagation",
			Name:      "assertions_total",
			Help:      "Relationship assertions by outcome",
		},
		[]string{"outcome"}, // accepted, rejected, error
	)

	DerivedEdges = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "propagation",
			Name:      "derived_edges_total",
			Help:      "Edges written by derivation, excluding the asserted edge",
		},
	)

	DuplicatesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "propagation",
			Name:      "duplicates_removed_total",
			Help:      "Duplicate edges removed by the deduplication pass",
		},
	)

	// Query metrics
	KinshipQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kinship",
			Name:      "queries_total",
			Help:      "Kinship resolutions by outcome",
		},
		[]string{"outcome"}, // related, unrelated, not_found, error
	)

	KinshipPathLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "kinship",
			Name:      "path_length",
			Help:      "Edges on resolved kinship paths",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10, 15},
		},
	)

	NetworkBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "builds_total",
			Help:      "Kinship network builds by outcome",
		},
		[]string{"outcome"}, // ok, not_found, invalid, error
	)

	NetworkNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "nodes",
			Help:      "Nodes per built kinship network",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)
