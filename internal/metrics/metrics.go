// Package metrics exposes Prometheus collectors for the chat and document APIs.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets covers model latencies from 100ms up to the default 50s wait budget and beyond.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 50, 60}

var (
	// RequestsTotal counts HTTP requests by method, route and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multillm_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "multillm_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method", "route"},
	)

	// ModelInvocationsTotal counts fan-out invocations by model and result status.
	ModelInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multillm_model_invocations_total",
			Help: "Model invocations",
		},
		[]string{"model", "status"},
	)

	// ModelLatency records how long each model took, timeouts included.
	ModelLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "multillm_model_latency_seconds",
			Help:    "Model latency",
			Buckets: LLMBuckets,
		},
		[]string{"model"},
	)

	// ContextsRetrieved records how many chunks retrieval returned per question.
	ContextsRetrieved = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "multillm_contexts_retrieved",
			Help:    "Context chunks retrieved per question",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	// DocumentOperationsTotal counts document list/upload/delete calls by outcome.
	DocumentOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multillm_document_operations_total",
			Help: "Document operations",
		},
		[]string{"operation", "status"},
	)

	// IngestionTriggersTotal counts re-index triggers by outcome.
	IngestionTriggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multillm_ingestion_triggers_total",
			Help: "Ingestion job triggers",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ModelInvocationsTotal,
		ModelLatency,
		ContextsRetrieved,
		DocumentOperationsTotal,
		IngestionTriggersTotal,
	)
}

// Outcome maps an error to the "status" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
