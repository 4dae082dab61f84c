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
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schoolhub_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schoolhub_register_total",
			Help: "Total number of parent signups",
		},
	)

	// Role activation counter
	RoleActivationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schoolhub_role_activation_total",
			Help: "Total number of role context activations",
		},
		[]string{"role"},
	)

	// Authorization decisions
	AuthzDecisionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schoolhub_authz_decisions_total",
			Help: "Total number of authorization guard decisions",
		},
		[]string{"decision"}, // "grant" or "deny"
	)

	// Parent-student link requests
	LinkRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schoolhub_link_requests_total",
			Help: "Total number of parent-student link operations",
		},
		[]string{"operation"}, // "request", "verify", "reject", "duplicate"
	)

	// Attendance writes
	AttendanceUpsertCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schoolhub_attendance_upserts_total",
			Help: "Total number of attendance records written",
		},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schoolhub_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schoolhub_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "invalid_token", "missing_token", "user_not_found" etc.
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schoolhub_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schoolhub_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Active schools
	ActiveSchoolsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schoolhub_active_schools",
			Help: "Number of currently active schools",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "schoolhub_info",
			Help: "Information about the schoolhub service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(RoleActivationCounter)
	prometheus.MustRegister(AuthzDecisionCounter)
	prometheus.MustRegister(LinkRequestCounter)
	prometheus.MustRegister(AttendanceUpsertCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(ActiveSchoolsGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// RecordAuthError increments the auth error counter for a failure type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordAuthzDecision increments the guard decision counter
func RecordAuthzDecision(decision string) {
	AuthzDecisionCounter.With(prometheus.Labels{"decision": decision}).Inc()
}

// RecordRoleActivation increments the role activation counter
func RecordRoleActivation(role string) {
	RoleActivationCounter.With(prometheus.Labels{"role": role}).Inc()
}

// RecordLinkOperation increments the parent-student link counter
func RecordLinkOperation(operation string) {
	LinkRequestCounter.With(prometheus.Labels{"operation": operation}).Inc()
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

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			return err
		}
	}
}
