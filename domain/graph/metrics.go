package graph

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	nodesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graph_nodes_created_total",
		Help: "Total number of nodes created, by label",
	}, []string{"label"})

	nodesDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graph_nodes_deleted_total",
		Help: "Total number of nodes deleted, by label",
	}, []string{"label"})

	relationshipsMerged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graph_relationships_merged_total",
		Help: "Total number of relationship merge requests, by type",
	}, []string{"type"})
)
