// Package metrics defines the prometheus collectors for the swap workflow
// and the backend server.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QuoteRequests counts aggregator quote calls by outcome (ok, error, stale).
	QuoteRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solswap_quote_requests_total",
			Help: "Aggregator quote requests by outcome.",
		},
		[]string{"outcome"},
	)

	QuoteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "solswap_quote_duration_seconds",
			Help:    "Aggregator quote latency.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// SwapOutcomes counts swaps by terminal executor state.
	SwapOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solswap_swaps_total",
			Help: "Swaps by terminal state.",
		},
		[]string{"state"},
	)

	RecordPersistence = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solswap_record_persist_total",
			Help: "Transaction record saves by outcome.",
		},
		[]string{"outcome"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solswap_http_requests_total",
			Help: "Backend HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solswap_http_request_duration_seconds",
			Help:    "Backend HTTP request latency.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.3, 1, 3},
		},
		[]string{"method", "path"},
	)
)

var registerOnce sync.Once

// Register adds all collectors to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			QuoteRequests,
			QuoteDuration,
			SwapOutcomes,
			RecordPersistence,
			HTTPRequestsTotal,
			HTTPRequestDuration,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
