package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets     = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	pipelineDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}
)

// Metrics holds all Prometheus metric instruments for the service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Intake metrics
	IntakeValidationsTotal *prometheus.CounterVec

	// Checkout metrics
	CheckoutSessionsTotal *prometheus.CounterVec

	// Fulfillment metrics
	WebhookEvents    *prometheus.CounterVec
	PipelineStages   *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certserve_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certserve_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),

		IntakeValidationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certserve_intake_validations_total",
			Help: "Total number of intake validations.",
		}, []string{"result"}),

		CheckoutSessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certserve_checkout_sessions_total",
			Help: "Total number of checkout session creation attempts.",
		}, []string{"result"}),

		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certserve_webhook_events_total",
			Help: "Total number of received payment notifications.",
		}, []string{"result"}),
		PipelineStages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certserve_pipeline_stage_total",
			Help: "Total number of fulfillment pipeline stage outcomes.",
		}, []string{"stage", "outcome"}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "certserve_pipeline_duration_seconds",
			Help:    "End-to-end fulfillment duration in seconds.",
			Buckets: pipelineDurationBuckets,
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.IntakeValidationsTotal,
		m.CheckoutSessionsTotal,
		m.WebhookEvents,
		m.PipelineStages,
		m.PipelineDuration,
	)

	return m
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
}

// RecordIntakeValidation records an intake validation outcome.
func (m *Metrics) RecordIntakeValidation(result string) {
	m.IntakeValidationsTotal.WithLabelValues(result).Inc()
}

// RecordCheckoutSession records a checkout session creation outcome.
func (m *Metrics) RecordCheckoutSession(result string) {
	m.CheckoutSessionsTotal.WithLabelValues(result).Inc()
}

// MetricsMiddleware returns HTTP middleware that records request metrics using
// chi's route pattern (not the actual URL path) to avoid label cardinality
// explosion.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		m.RecordHTTPRequest(r.Method, routePattern(r), sw.status, time.Since(start))
	})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.Join(rctx.RoutePatterns, "")
	// chi route patterns have trailing /*, remove it.
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// metricsResponseWriter wraps http.ResponseWriter to capture status.
type metricsResponseWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}
