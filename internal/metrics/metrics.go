// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	recommendations     *prometheus.CounterVec
	budgetNotifications *prometheus.CounterVec
	jobRuns             *prometheus.CounterVec
	trades              *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finmate",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "finmate",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finmate",
			Name:      "credit_recommendations_total",
			Help:      "Credit-score recommendation sets by source (ai or rules).",
		}, []string{"source"}),
		budgetNotifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finmate",
			Name:      "budget_notifications_total",
			Help:      "Budget threshold notifications by level.",
		}, []string{"level"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finmate",
			Name:      "scheduler_job_runs_total",
			Help:      "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finmate",
			Name:      "paper_trades_total",
			Help:      "Executed paper trades by side.",
		}, []string{"side"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.recommendations,
		m.budgetNotifications,
		m.jobRuns,
		m.trades,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request counts and latency keyed by the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// RecordRecommendations counts one recommendation set from source.
func (m *Metrics) RecordRecommendations(source string) {
	m.recommendations.WithLabelValues(source).Inc()
}

// RecordBudgetNotification counts one threshold notification.
func (m *Metrics) RecordBudgetNotification(level string) {
	m.budgetNotifications.WithLabelValues(level).Inc()
}

// RecordJobRun counts one scheduled job execution.
func (m *Metrics) RecordJobRun(job string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}

// RecordTrade counts one executed paper trade.
func (m *Metrics) RecordTrade(side string) {
	m.trades.WithLabelValues(side).Inc()
}
