// Package metrics provides Prometheus metrics for the stationdocs server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationdocs_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stationdocs_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Hierarchy store metrics
	storeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationdocs_store_operations_total",
			Help: "Hierarchy store mutations by operation and result",
		},
		[]string{"operation", "result"},
	)

	treeNodes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stationdocs_tree_nodes",
			Help: "Number of nodes in the hierarchy by kind",
		},
		[]string{"kind"},
	)

	dropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationdocs_drops_total",
			Help: "Drag/drop attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Viewer metrics
	transientURLsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stationdocs_transient_urls_active",
			Help: "Transient view URLs currently minted and not yet revoked",
		},
	)

	// Blob store metrics
	blobOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stationdocs_blob_operation_duration_seconds",
			Help:    "Blob store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation", "status"},
	)

	scanStoreFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationdocs_scan_store_failures_total",
			Help: "Saved scan history reads/writes that degraded to an empty result",
		},
		[]string{"operation"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordStoreOperation records one hierarchy store mutation.
func RecordStoreOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeOperationsTotal.WithLabelValues(operation, result).Inc()
}

// SetTreeSize updates the node gauges.
func SetTreeSize(folders, files int) {
	treeNodes.WithLabelValues("folder").Set(float64(folders))
	treeNodes.WithLabelValues("file").Set(float64(files))
}

// RecordDrop records a drag/drop outcome ("moved", "rejected_noop", "rejected_cycle", "failed").
func RecordDrop(outcome string) {
	dropsTotal.WithLabelValues(outcome).Inc()
}

// TransientURLMinted increments the active transient URL gauge.
func TransientURLMinted() { transientURLsActive.Inc() }

// TransientURLRevoked decrements the active transient URL gauge.
func TransientURLRevoked() { transientURLsActive.Dec() }

// RecordBlobOperation records a blob store call.
func RecordBlobOperation(backend, operation string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	blobOperationDuration.WithLabelValues(backend, operation, status).Observe(duration.Seconds())
}

// RecordScanStoreFailure records a swallowed scan history failure.
func RecordScanStoreFailure(operation string) {
	scanStoreFailuresTotal.WithLabelValues(operation).Inc()
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration. Routes are labelled by
// their registered pattern to keep label cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
