package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// promMetrics implements MetricsRecorder with Prometheus collectors.
type promMetrics struct {
	steps           *prometheus.CounterVec
	stepErrors      *prometheus.CounterVec
	stepLatency     *prometheus.HistogramVec
	runs            *prometheus.CounterVec
	runLatency      prometheus.Histogram
	persistFailures *prometheus.CounterVec
}

// NewPrometheusRecorder creates a MetricsRecorder whose collectors are
// registered on reg. Use prometheus.NewRegistry() in tests to avoid
// collisions with the default registry.
func NewPrometheusRecorder(reg prometheus.Registerer) (MetricsRecorder, error) {
	m := &promMetrics{
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "miniflow",
			Name:      "node_executions_total",
			Help:      "Number of node executions",
		}, []string{"node"}),
		stepErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "miniflow",
			Name:      "node_errors_total",
			Help:      "Number of node execution errors",
		}, []string{"node"}),
		stepLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "miniflow",
			Name:      "node_duration_seconds",
			Help:      "Node execution latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "miniflow",
			Name:      "graph_runs_total",
			Help:      "Number of finished graph runs by halt reason",
		}, []string{"halt", "success"}),
		runLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "miniflow",
			Name:      "graph_run_duration_seconds",
			Help:      "Graph run latency",
			Buckets:   prometheus.DefBuckets,
		}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "miniflow",
			Name:      "persist_failures_total",
			Help:      "Number of step callback failures",
		}, []string{"node"}),
	}

	for _, c := range []prometheus.Collector{
		m.steps, m.stepErrors, m.stepLatency, m.runs, m.runLatency, m.persistFailures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordStep records a node execution.
func (m *promMetrics) RecordStep(_ context.Context, node string, duration time.Duration, err error) {
	m.steps.WithLabelValues(node).Inc()
	m.stepLatency.WithLabelValues(node).Observe(duration.Seconds())
	if err != nil {
		m.stepErrors.WithLabelValues(node).Inc()
	}
}

// RecordRun records a finished run.
func (m *promMetrics) RecordRun(_ context.Context, halt string, err error, duration time.Duration) {
	success := "true"
	if err != nil {
		success = "false"
	}
	m.runs.WithLabelValues(halt, success).Inc()
	m.runLatency.Observe(duration.Seconds())
}

// RecordPersistFailure records a step callback failure.
func (m *promMetrics) RecordPersistFailure(_ context.Context, node string) {
	m.persistFailures.WithLabelValues(node).Inc()
}
