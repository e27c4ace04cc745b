package metrics

import "github.com/prometheus/client_golang/prometheus"

// Rerank Prometheus metrics.
var (
	RerankRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assessrec",
			Name:      "rerank_requests_total",
			Help:      "Total number of rerank requests",
		},
		[]string{"model", "status"},
	)

	RerankRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "assessrec",
			Name:      "rerank_request_duration_seconds",
			Help:      "Rerank request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"model"},
	)

	RerankFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "assessrec",
			Name:      "rerank_fallbacks_total",
			Help:      "Recommendations served from the retrieval order because reranking failed",
		},
	)

	RetrievalFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "assessrec",
			Name:      "retrieval_fallbacks_total",
			Help:      "Requests served by the lexical index because embedding retrieval failed",
		},
	)
)

var rerankMetricsRegistered bool

// RegisterRerankMetrics registers Prometheus rerank metrics. Must be called once from main.
func RegisterRerankMetrics() {
	if rerankMetricsRegistered {
		return
	}
	prometheus.MustRegister(RerankRequestsTotal)
	prometheus.MustRegister(RerankRequestDuration)
	prometheus.MustRegister(RerankFallbacksTotal)
	prometheus.MustRegister(RetrievalFallbacksTotal)
	rerankMetricsRegistered = true
}
