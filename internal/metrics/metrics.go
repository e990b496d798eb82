// Package metrics exposes prometheus collectors for the ordering client.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the client-specific collectors.
	Registry = prometheus.NewRegistry()

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quickplate",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests issued.",
		},
		[]string{"method", "path", "status"},
	)

	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "quickplate",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quickplate",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by key and outcome (hit, miss, stale).",
		},
		[]string{"key", "outcome"},
	)

	pushEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quickplate",
			Subsystem: "push",
			Name:      "events_total",
			Help:      "Push channel events received by type.",
		},
		[]string{"event"},
	)

	pushReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "quickplate",
			Subsystem: "push",
			Name:      "reconnects_total",
			Help:      "Push channel reconnect attempts.",
		},
	)
)

func init() {
	Registry.MustRegister(apiRequests, apiDuration, cacheLookups, pushEvents, pushReconnects)
}

// ObserveRequest records one API request. A zero status means the request
// never produced a response (transport failure).
func ObserveRequest(method, path string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	apiRequests.WithLabelValues(method, path, label).Inc()
	apiDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveCacheLookup records one cache lookup outcome.
func ObserveCacheLookup(key, outcome string) {
	cacheLookups.WithLabelValues(key, outcome).Inc()
}

// ObservePushEvent records one received push event.
func ObservePushEvent(event string) {
	pushEvents.WithLabelValues(event).Inc()
}

// ObservePushReconnect records one reconnect attempt.
func ObservePushReconnect() {
	pushReconnects.Inc()
}

// Handler returns an HTTP handler serving the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
