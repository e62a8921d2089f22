package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Signup counter
	SignupCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insights_signup_total",
			Help: "Total number of tenant signup attempts",
		},
	)

	// Login counter
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insights_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Authentication error counter
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "invalid_request", "invalid_credentials", "duplicate_tenant", etc.
	)

	// Ingested record counter
	IngestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_ingest_records_total",
			Help: "Total number of records ingested by entity",
		},
		[]string{"entity"}, // "product", "customer", "order", "event"
	)

	// Skipped record counter
	IngestSkippedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_ingest_skipped_total",
			Help: "Total number of records skipped during ingestion",
		},
		[]string{"entity", "reason"},
	)

	// Ingestion failure counter
	IngestErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_ingest_errors_total",
			Help: "Total number of failed ingestion batches",
		},
		[]string{"entity"},
	)

	// Shopify sync counter
	SyncCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_shopify_sync_total",
			Help: "Total number of Shopify sync runs by entity and outcome",
		},
		[]string{"entity", "outcome"}, // outcome is "success" or "failure"
	)

	// Dashboard query counter
	DashboardQueryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_dashboard_queries_total",
			Help: "Total number of dashboard queries by view",
		},
		[]string{"view"},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insights_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insights_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "ingest_batch", "clear"
	)
)

// Gauge metrics
var (
	// Active tenants, refreshed by the scheduler
	ActiveTenantsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "insights_active_tenants",
			Help: "Number of registered tenants",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "insights_info",
			Help: "Information about the insights service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(SignupCounter)
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(IngestCounter)
	prometheus.MustRegister(IngestSkippedCounter)
	prometheus.MustRegister(IngestErrorCounter)
	prometheus.MustRegister(SyncCounter)
	prometheus.MustRegister(DashboardQueryCounter)
	prometheus.MustRegister(HTTPRequestCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(ActiveTenantsGauge)
	prometheus.MustRegister(InfoGauge)

	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordIngest records ingested and skipped counts for one batch
func RecordIngest(entity string, ingested, skipped int) {
	IngestCounter.WithLabelValues(entity).Add(float64(ingested))
	if skipped > 0 {
		IngestSkippedCounter.WithLabelValues(entity, "invalid_record").Add(float64(skipped))
	}
}

// RecordSync records the outcome of a Shopify sync run
func RecordSync(entity string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	SyncCounter.WithLabelValues(entity, outcome).Inc()
}

// RecordDashboardQuery records a dashboard view access
func RecordDashboardQuery(view string) {
	DashboardQueryCounter.WithLabelValues(view).Inc()
}

// UpdateActiveTenants updates the active tenants gauge
func UpdateActiveTenants(count int) {
	ActiveTenantsGauge.Set(float64(count))
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}
