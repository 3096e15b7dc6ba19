package graphdb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "graphdb_query_duration_seconds",
		Help:    "Duration of graph statements",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	queryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphdb_query_errors_total",
		Help: "Total number of graph statements that failed",
	}, []string{"mode"})
)
