package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	syncFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lendhub",
			Name:      "sync_fetch_duration_seconds",
			Help:      "Per-entity-type fetch duration during orchestrated refresh.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"entity_type", "outcome"},
	)

	syncRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lendhub",
			Name:      "sync_refreshes_total",
			Help:      "Orchestrated refreshes by terminal outcome.",
		},
		[]string{"outcome"},
	)

	syncPartialFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lendhub",
			Name:      "sync_partial_failures_total",
			Help:      "Entity types that failed to refresh inside an otherwise successful batch.",
		},
		[]string{"entity_type"},
	)

	cacheFreshness = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lendhub",
			Name:      "cache_freshness_total",
			Help:      "Freshness checks by entity type and result (hit = fetch skipped).",
		},
		[]string{"entity_type", "result"},
	)

	mutationRollbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lendhub",
			Name:      "mutation_rollbacks_total",
			Help:      "Optimistic mutations rolled back after a remote failure.",
		},
		[]string{"entity_type"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lendhub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status.",
		},
		[]string{"method", "path", "status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			syncFetchDuration,
			syncRefreshes,
			syncPartialFailures,
			cacheFreshness,
			mutationRollbacks,
			httpRequests,
		)
	})
}

// ObserveFetch records one per-type fetch inside a refresh batch.
func ObserveFetch(entityType, outcome string, seconds float64) {
	syncFetchDuration.WithLabelValues(entityType, outcome).Observe(seconds)
}

// IncRefresh counts a finished refresh: ok, partial or timeout.
func IncRefresh(outcome string) {
	syncRefreshes.WithLabelValues(outcome).Inc()
}

// IncPartialFailure counts a failed entity type within a batch.
func IncPartialFailure(entityType string) {
	syncPartialFailures.WithLabelValues(entityType).Inc()
}

// IncFreshness counts a freshness decision: hit or miss.
func IncFreshness(entityType, result string) {
	cacheFreshness.WithLabelValues(entityType, result).Inc()
}

// IncRollback counts an optimistic mutation rollback.
func IncRollback(entityType string) {
	mutationRollbacks.WithLabelValues(entityType).Inc()
}

// IncHTTP counts one handled HTTP request.
func IncHTTP(method, path string, status int) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
