package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	feedConnectionsTotal  prometheus.Counter
	submissionEventsTotal *prometheus.CounterVec
	gradingRunsTotal      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "educasol",
			Name:      "api_requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "educasol",
			Name:      "api_latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "educasol",
			Name:      "api_errors_total",
			Help:      "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		feedConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "educasol",
			Name:      "feed_connections_total",
			Help:      "Total number of websocket feed connections accepted.",
		})

		submissionEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "educasol",
			Name:      "submission_events_total",
			Help:      "Total number of submission feed events fanned out.",
		}, []string{"type"})

		gradingRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "educasol",
			Name:      "grading_runs_total",
			Help:      "Total number of AI grading runs by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			feedConnectionsTotal,
			submissionEventsTotal,
			gradingRunsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// FeedConnectionsTotal exposes the counter for accepted feed connections.
func FeedConnectionsTotal() prometheus.Counter {
	RegisterMetrics()
	return feedConnectionsTotal
}

// SubmissionEventsTotal exposes the counter for submission feed events.
func SubmissionEventsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionEventsTotal
}

// GradingRunsTotal exposes the counter for grading runs by outcome.
func GradingRunsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingRunsTotal
}
