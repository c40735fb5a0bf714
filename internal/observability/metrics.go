package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClientRequests counts backend calls by method, route template and status.
	ClientRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_client_requests_total",
		Help: "Total number of requests sent to the blog backend",
	}, []string{"method", "route", "status"})

	// ClientRequestLatency records backend call latency.
	ClientRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blog_client_request_duration_seconds",
		Help:    "Blog backend request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// CacheLookups counts query cache reads by key family and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_query_cache_lookups_total",
		Help: "Total number of query cache lookups by result",
	}, []string{"family", "result"})

	// CacheInvalidations counts invalidated query cache keys.
	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_query_cache_invalidations_total",
		Help: "Total number of query cache invalidations",
	}, []string{"family"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// MutationResults counts post mutations by kind and outcome.
	MutationResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_post_mutations_total",
		Help: "Total number of post mutations by kind and outcome",
	}, []string{"kind", "outcome"})
)

// TrackRequest returns a function that records a backend call when called
// with the response status (0 when no response arrived).
func TrackRequest(method, route string) func(status int) {
	start := time.Now()
	return func(status int) {
		ClientRequestLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		label := "none"
		if status > 0 {
			label = strconv.Itoa(status)
		}
		ClientRequests.WithLabelValues(method, route, label).Inc()
	}
}
