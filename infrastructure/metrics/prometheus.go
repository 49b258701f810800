// Package metrics provides the Prometheus-backed MetricsCollector used by
// the sampling pipeline, plus an optional HTTP endpoint for scraping.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/HartreeWorks/bestofn/internal/ports"
)

// PrometheusMetrics implements ports.MetricsCollector using Prometheus.
// It tracks request volume, latency, and token consumption per provider
// and model across a sampling run.
type PrometheusMetrics struct {
	requestCounter *prometheus.CounterVec
	tokenCounter   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	sampleCounter  *prometheus.CounterVec
}

// Compile-time verification that PrometheusMetrics implements
// MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a collector and registers its metrics in the
// given registry. A nil registry uses the default global registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		requestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of LLM requests by provider, model, and status.",
			},
			[]string{"provider", "model", "status"},
		),
		tokenCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total tokens consumed by provider, model, and direction.",
			},
			[]string{"provider", "model", "token_type"},
		),
		requestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_latency_seconds",
				Help:    "LLM request latency by provider and model.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"provider", "model"},
		),
		sampleCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "samples_total",
				Help: "Sampling outcomes by model and status.",
			},
			[]string{"model", "status"},
		),
	}
}

// RecordLatency records an operation duration as a latency observation.
func (pm *PrometheusMetrics) RecordLatency(name string, duration time.Duration, labels map[string]string) {
	pm.requestLatency.WithLabelValues(labels["provider"], labels["model"]).
		Observe(duration.Seconds())
}

// RecordCounter increments the counter matching the metric name.
func (pm *PrometheusMetrics) RecordCounter(name string, value float64, labels map[string]string) {
	switch name {
	case "llm_requests_total":
		pm.requestCounter.WithLabelValues(
			labels["provider"], labels["model"], labels["status"],
		).Add(value)
	case "llm_tokens_total":
		pm.tokenCounter.WithLabelValues(
			labels["provider"], labels["model"], labels["token_type"],
		).Add(value)
	case "samples_total":
		pm.sampleCounter.WithLabelValues(labels["model"], labels["status"]).Add(value)
	default:
		pm.sampleCounter.WithLabelValues(name, labels["status"]).Add(value)
	}
}

// RecordHistogram records a value in the latency histogram; latency is the
// only histogram this pipeline emits.
func (pm *PrometheusMetrics) RecordHistogram(name string, value float64, labels map[string]string) {
	pm.requestLatency.WithLabelValues(labels["provider"], labels["model"]).Observe(value)
}

// Serve exposes /metrics on addr until ctx is canceled. Intended to be run
// in its own goroutine; serve errors are logged, not returned, since
// metrics must never fail a sampling run.
func Serve(ctx context.Context, addr string, reg prometheus.Gatherer) {
	if reg == nil {
		reg = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zap.L().Warn("metrics endpoint failed", zap.String("addr", addr), zap.Error(err))
	}
}
