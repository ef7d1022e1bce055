package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lakespend",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lakespend",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lakespend",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Workspace API metrics
	workspaceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lakespend",
			Subsystem: "workspace",
			Name:      "requests_total",
			Help:      "Total number of workspace API calls",
		},
		[]string{"resource_type", "operation", "status"},
	)

	workspaceRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lakespend",
			Subsystem: "workspace",
			Name:      "request_duration_seconds",
			Help:      "Workspace API call duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"resource_type", "operation"},
	)

	// Bulk operation metrics
	bulkItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lakespend",
			Subsystem: "bulk",
			Name:      "items_total",
			Help:      "Total number of bulk tag update items processed",
		},
		[]string{"status"},
	)

	// Compliance metrics
	complianceScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lakespend",
			Subsystem: "compliance",
			Name:      "scan_duration_seconds",
			Help:      "Duration of compliance scans in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	complianceRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lakespend",
			Subsystem: "compliance",
			Name:      "rate",
			Help:      "Fraction of resources carrying all required tags, from the last scan",
		},
	)

	resourcesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lakespend",
			Subsystem: "resource",
			Name:      "total_count",
			Help:      "Number of workspace resources seen by the last scan",
		},
		[]string{"type"},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lakespend",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "table"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		// Get route pattern from chi
		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkspaceRequest records one workspace API call
func RecordWorkspaceRequest(resourceType, operation, status string, duration time.Duration) {
	workspaceRequestsTotal.WithLabelValues(resourceType, operation, status).Inc()
	workspaceRequestDuration.WithLabelValues(resourceType, operation).Observe(duration.Seconds())
}

// RecordBulkItem records the outcome of one bulk update item
func RecordBulkItem(status string) {
	bulkItemsTotal.WithLabelValues(status).Inc()
}

// RecordComplianceScan records the duration of a compliance scan
func RecordComplianceScan(duration time.Duration) {
	complianceScanDuration.Observe(duration.Seconds())
}

// SetComplianceRate sets the compliance rate gauge from the latest scan
func SetComplianceRate(rate float64) {
	complianceRate.Set(rate)
}

// SetResourcesCount sets the resource count gauge for a type
func SetResourcesCount(resourceType string, count float64) {
	resourcesTotal.WithLabelValues(resourceType).Set(count)
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation, table string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}
