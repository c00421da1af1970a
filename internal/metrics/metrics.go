// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration in seconds partitioned by method, route, and status code
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// In-flight HTTP requests
	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// End-to-end orchestrated search latency
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parts_search_duration_seconds",
			Help:    "End-to-end parts search latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parts_search_cache_hits_total",
			Help: "Searches served from the query cache",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parts_search_cache_misses_total",
			Help: "Searches that missed the query cache",
		},
	)

	// External source calls partitioned by source and outcome
	// (ok, error, denied, disabled)
	SourceCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parts_source_calls_total",
			Help: "External source search attempts by outcome",
		},
		[]string{"source", "outcome"},
	)

	ExternalPartsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parts_external_persisted_total",
			Help: "Externally sourced part records upserted into the catalog",
		},
	)
)

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
