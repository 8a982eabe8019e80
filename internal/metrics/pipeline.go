package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Routing, index and chat Prometheus metrics.
var (
	RouteDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_decisions_total",
			Help:      "Intent routing decisions by intent and source",
		},
		[]string{"intent", "source"}, // source: "classifier" / "rules"
	)

	ClassifierErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_errors_total",
			Help:      "Intent classifier failures by failure kind",
		},
		[]string{"model", "error_type"},
	)

	IndexQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_query_duration_seconds",
			Help:      "Vector index query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"driver"},
	)

	IndexUpsertedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_upserted_total",
			Help:      "Records written to the vector index",
		},
		[]string{"driver"},
	)

	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat turns handled by intent and outcome",
		},
		[]string{"intent", "outcome"}, // outcome: "ok" / "empty" / "degraded"
	)
)

var pipelineOnce sync.Once

// RegisterPipelineMetrics registers routing, index and chat metrics. Safe to call more than once.
func RegisterPipelineMetrics() {
	pipelineOnce.Do(func() {
		prometheus.MustRegister(
			RouteDecisionsTotal,
			ClassifierErrorsTotal,
			IndexQueryDuration,
			IndexUpsertedTotal,
			ChatRequestsTotal,
		)
	})
}
