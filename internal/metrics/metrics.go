// Package metrics provides Prometheus metrics for the reconciliation engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

const namespace = "boqrecon"

type Metrics struct {
	gatherer prometheus.Gatherer

	// PassesTotal tracks finished matching passes by status
	PassesTotal *prometheus.CounterVec
	// PassDuration tracks successful matching pass duration in seconds
	PassDuration prometheus.Histogram
	// ItemsTotal tracks matched and unmatched invoice items
	ItemsTotal *prometheus.CounterVec
	// FailuresTotal tracks failed passes by reason
	FailuresTotal *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var _ reconciliation.Recorder = (*Metrics)(nil)

// New registers every collector with reg. Pass prometheus.NewRegistry() in
// tests to avoid clashing with the default registry.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		PassesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "matching",
				Name:      "passes_total",
				Help:      "Total number of matching passes by status",
			},
			[]string{"status"},
		),
		PassDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "matching",
				Name:      "pass_duration_seconds",
				Help:      "Duration of successful matching passes in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		ItemsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "matching",
				Name:      "items_total",
				Help:      "Total number of invoice items matched by result",
			},
			[]string{"result"},
		),
		FailuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "matching",
				Name:      "failures_total",
				Help:      "Total number of failed matching passes by reason",
			},
			[]string{"reason"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func (m *Metrics) PassCompleted(matched, unmatched int, elapsed time.Duration) {
	m.PassesTotal.WithLabelValues("completed").Inc()
	m.PassDuration.Observe(elapsed.Seconds())
	m.ItemsTotal.WithLabelValues("matched").Add(float64(matched))
	m.ItemsTotal.WithLabelValues("unmatched").Add(float64(unmatched))
}

func (m *Metrics) PassFailed(reason string) {
	m.PassesTotal.WithLabelValues("failed").Inc()
	m.FailuresTotal.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and durations labelled by chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
