package metrics

import (
	"bufio"
	"fmt"
	"net"
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
			Namespace: "lexaudit",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexaudit",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lexaudit",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Validation metrics
	validationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexaudit",
			Subsystem: "compliance",
			Name:      "validations_total",
			Help:      "Total number of document validations",
		},
		[]string{"compliant"},
	)

	validationScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lexaudit",
			Subsystem: "compliance",
			Name:      "validation_score",
			Help:      "Distribution of document compliance scores",
			Buckets:   []float64{.1, .2, .3, .4, .5, .6, .7, .8, .9, 1},
		},
	)

	validationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lexaudit",
			Subsystem: "compliance",
			Name:      "validation_duration_seconds",
			Help:      "Duration of a single document validation in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)

	issuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexaudit",
			Subsystem: "compliance",
			Name:      "issues_total",
			Help:      "Total number of compliance issues found",
		},
		[]string{"severity"},
	)

	ruleFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexaudit",
			Subsystem: "compliance",
			Name:      "rule_failures_total",
			Help:      "Total number of rule evaluations that failed or panicked",
		},
		[]string{"rule"},
	)

	registeredRules = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lexaudit",
			Subsystem: "compliance",
			Name:      "registered_rules",
			Help:      "Number of rules currently in the registry",
		},
	)

	// Report metrics
	reportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexaudit",
			Subsystem: "report",
			Name:      "generated_total",
			Help:      "Total number of organization reports generated",
		},
		[]string{"model"},
	)

	reportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexaudit",
			Subsystem: "report",
			Name:      "duration_seconds",
			Help:      "Duration of organization report generation in seconds",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30},
		},
		[]string{"model"},
	)

	archiveFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexaudit",
			Subsystem: "report",
			Name:      "archive_failures_total",
			Help:      "Total number of failed report archive writes",
		},
		[]string{"target"},
	)

	scheduledReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexaudit",
			Subsystem: "scheduler",
			Name:      "reports_total",
			Help:      "Total number of reports attempted by the scheduler",
		},
		[]string{"outcome"},
	)

	// Event bus metrics
	eventsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexaudit",
			Subsystem: "events",
			Name:      "emitted_total",
			Help:      "Total number of events emitted on the bus",
		},
		[]string{"event"},
	)

	eventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexaudit",
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Total number of events dropped because a subscriber buffer was full",
		},
		[]string{"event"},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexaudit",
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

// Hijack passes websocket upgrades through
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
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

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
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

// RecordValidation records the outcome of one document validation
func RecordValidation(compliant bool, score float64, duration time.Duration) {
	validationsTotal.WithLabelValues(strconv.FormatBool(compliant)).Inc()
	validationScore.Observe(score)
	validationDuration.Observe(duration.Seconds())
}

// RecordIssue counts an issue by severity
func RecordIssue(severity string) {
	issuesTotal.WithLabelValues(severity).Inc()
}

// RecordRuleFailure counts a rule that errored or panicked
func RecordRuleFailure(ruleID string) {
	ruleFailuresTotal.WithLabelValues(ruleID).Inc()
}

// SetRegisteredRules sets the registry size gauge
func SetRegisteredRules(count int) {
	registeredRules.Set(float64(count))
}

// RecordReport records a generated organization report
func RecordReport(model string, duration time.Duration) {
	reportsTotal.WithLabelValues(model).Inc()
	reportDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordArchiveFailure counts a failed archive write
func RecordArchiveFailure(target string) {
	archiveFailuresTotal.WithLabelValues(target).Inc()
}

// RecordEventEmitted counts an event published on the bus
func RecordEventEmitted(event string) {
	eventsEmittedTotal.WithLabelValues(event).Inc()
}

// RecordEventDropped counts an event that a subscriber could not accept
func RecordEventDropped(event string) {
	eventsDroppedTotal.WithLabelValues(event).Inc()
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation, table string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordScheduledReport records the outcome of one scheduled report
func RecordScheduledReport(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	scheduledReportsTotal.WithLabelValues(outcome).Inc()
}
