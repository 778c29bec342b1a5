package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization metrics
	AuthzDecisionsTotal *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal      *prometheus.CounterVec
	CacheMissesTotal    *prometheus.CounterVec
	CacheFallbacksTotal *prometheus.CounterVec

	// Zone assignment metrics
	ZoneAssignmentsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ccadmin_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ccadmin_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ccadmin_authz_decisions_total",
				Help: "Authorization decisions taken by the scope middleware",
			},
			[]string{"decision", "code"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ccadmin_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"tier"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ccadmin_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"tier"},
		),
		CacheFallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ccadmin_cache_remote_fallbacks_total",
				Help: "Remote cache operations that failed and fell back to the local tier",
			},
			[]string{"operation"},
		),
		ZoneAssignmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ccadmin_zone_assignments_total",
				Help: "Zone assignment operations by action and outcome",
			},
			[]string{"action", "status"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthzDecisionsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheFallbacksTotal,
		m.ZoneAssignmentsTotal,
	)

	return m
}

// RecordAuthzDecision counts an allow or deny taken by the scope middleware
func (m *Metrics) RecordAuthzDecision(_ context.Context, decision, code string) {
	m.AuthzDecisionsTotal.WithLabelValues(decision, code).Inc()
}

// RecordCacheHit counts a hit on the given tier
func (m *Metrics) RecordCacheHit(_ context.Context, tier string) {
	m.CacheHitsTotal.WithLabelValues(tier).Inc()
}

// RecordCacheMiss counts a miss on the given tier
func (m *Metrics) RecordCacheMiss(_ context.Context, tier string) {
	m.CacheMissesTotal.WithLabelValues(tier).Inc()
}

// RecordCacheFallback counts a remote failure served by the local tier
func (m *Metrics) RecordCacheFallback(_ context.Context, operation string) {
	m.CacheFallbacksTotal.WithLabelValues(operation).Inc()
}

// RecordZoneAssignment counts a registry write
func (m *Metrics) RecordZoneAssignment(action string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.ZoneAssignmentsTotal.WithLabelValues(action, status).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// The route label is the mux path template to keep cardinality bounded.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := routeTemplate(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
