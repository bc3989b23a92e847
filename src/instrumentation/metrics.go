package instrumentation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics for the reporting engine.
type Metrics struct {
	ReportLatencyMs *prometheus.HistogramVec
	ReportsTotal    *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	CacheHitsTotal  *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ReportLatencyMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "corretaje_report_latency_ms",
			Help:    "Time to build a report in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"report"}),

		ReportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "corretaje_reports_total",
			Help: "Total number of reports built",
		}, []string{"report"}),

		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "corretaje_errors_total",
			Help: "Total number of errors by component and type",
		}, []string{"component", "error_type"}),

		CacheHitsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "corretaje_cache_hits_total",
			Help: "Report cache hits by report type",
		}, []string{"report"}),
	}
}

// RecordReport records one built report and its latency.
func (m *Metrics) RecordReport(report string, latencyMs float64) {
	m.ReportsTotal.WithLabelValues(report).Inc()
	m.ReportLatencyMs.WithLabelValues(report).Observe(latencyMs)
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, errorType string) {
	m.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// RecordCacheHit increments the cache hit counter.
func (m *Metrics) RecordCacheHit(report string) {
	m.CacheHitsTotal.WithLabelValues(report).Inc()
}
