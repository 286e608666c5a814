// Package metrics exposes Prometheus instruments for the mutation engine.
// Collectors register on the default registry; the CLI serves them when a
// metrics address is configured.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathogen_evaluations_total",
		Help: "Fitness evaluations by outcome (success, no_improvement, failure).",
	}, []string{"outcome"})

	EvaluationRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathogen_evaluation_retries_total",
		Help: "Fitness evaluations retried after a transient scorer failure.",
	})

	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pathogen_evaluation_duration_seconds",
		Help:    "Wall time of one scorer call including queueing on the slot semaphore.",
		Buckets: prometheus.DefBuckets,
	})

	MutationsAssigned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathogen_mutations_assigned_total",
		Help: "Mutations dispatched to agents, by operator.",
	}, []string{"operator"})

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pathogen_generation_duration_seconds",
		Help:    "Wall time of one full generation.",
		Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300},
	})

	PathwayFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathogen_pathway_fetch_failures_total",
		Help: "Pathway ids skipped after exhausting fetch retries.",
	})

	PathwayGraphFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathogen_pathway_graph_failures_total",
		Help: "Pathway ids skipped because the fetched data could not build a graph.",
	})
)
