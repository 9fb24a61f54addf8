// Package metrics declares the Prometheus collectors the service exports.
// Collectors work before Init; Init only registers them with the default
// registry so /metrics can serve them.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "linkshelf"

var (
	once sync.Once

	LinksShortened = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "links_shortened_total",
		Help:      "Short links created.",
	})

	// IDCollisions counts generated ids the store rejected as taken.
	IDCollisions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "id_collisions_total",
		Help:      "Generated short ids that were already taken.",
	})

	// Resolutions is labelled by result: found, not_found, error.
	Resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolutions_total",
		Help:      "Short id lookups by result.",
	}, []string{"result"})

	Deletions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deletions_total",
		Help:      "Short links deleted.",
	})

	// CacheOperations is labelled by layer (l1, l2) and result (hit, miss, error).
	CacheOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_operations_total",
		Help:      "Resolution cache lookups by layer and result.",
	}, []string{"layer", "result"})

	// route is the chi route pattern, never the raw path.
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency distributions.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	HTTPInflightRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})
)

// Init registers every collector once; repeated calls are no-ops.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			LinksShortened,
			IDCollisions,
			Resolutions,
			Deletions,
			CacheOperations,
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
		)
	})
}
