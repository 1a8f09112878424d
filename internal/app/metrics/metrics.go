// Package metrics exposes Prometheus collectors for the platform: the HTTP
// surface, the backend API client, and the local domain stores.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "medfin",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medfin",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medfin",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	backendAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medfin",
			Subsystem: "backend",
			Name:      "attempts_total",
			Help:      "Total request attempts against the analysis backend.",
		},
		[]string{"method", "status"},
	)

	backendRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medfin",
			Subsystem: "backend",
			Name:      "retries_total",
			Help:      "Total retried attempts against the analysis backend.",
		},
		[]string{"method"},
	)

	backendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medfin",
			Subsystem: "backend",
			Name:      "attempt_duration_seconds",
			Help:      "Duration of individual backend attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"method"},
	)

	storeMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medfin",
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Total mutations applied to the local domain stores.",
		},
		[]string{"store", "op"},
	)

	pendingActions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "medfin",
			Subsystem: "family",
			Name:      "pending_actions",
			Help:      "Pending actions from the last reminder scan.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		backendAttempts,
		backendRetries,
		backendDuration,
		storeMutations,
		pendingActions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordStoreMutation counts one mutation against a named store.
func RecordStoreMutation(store, op string) {
	storeMutations.WithLabelValues(store, op).Inc()
}

// SetPendingActions publishes the size of the latest reminder scan.
func SetPendingActions(n int) {
	pendingActions.Set(float64(n))
}

// BackendRecorder implements the API client's Recorder interface.
type BackendRecorder struct{}

func (BackendRecorder) RecordAttempt(method string, status int, duration time.Duration) {
	backendAttempts.WithLabelValues(method, strconv.Itoa(status)).Inc()
	backendDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (BackendRecorder) RecordRetry(method string) {
	backendRetries.WithLabelValues(method).Inc()
}

// Known literal path segments; anything else past the root is an ID.
var literalSegments = map[string]bool{
	"policies": true, "actions": true, "export": true, "import": true,
	"summary": true, "estimate": true, "services": true, "simplify": true,
	"terms": true, "analyze-bill": true, "appeal": true, "assistance": true,
	"plans": true, "recommend": true, "plan": true, "analyze-situation": true,
}

// canonicalPath collapses resource IDs so metric cardinality stays bounded.
// /family/123/policies/p1 becomes /family/:id/policies/:id.
func canonicalPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if i == 0 || literalSegments[part] {
			continue
		}
		parts[i] = ":id"
	}
	return "/" + strings.Join(parts, "/")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
