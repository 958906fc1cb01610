package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records run loop metrics.
// Use NewMetricsRecorder() for OTel metrics, NewPrometheusRecorder() for
// Prometheus, or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordStep records one node execution with its duration and error status.
	RecordStep(ctx context.Context, node string, duration time.Duration, err error)

	// RecordRun records a finished run. halt is empty when the run aborted.
	RecordRun(ctx context.Context, halt string, err error, duration time.Duration)

	// RecordPersistFailure records a swallowed step callback failure.
	RecordPersistFailure(ctx context.Context, node string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	nodeExecutions  metric.Int64Counter
	nodeLatency     metric.Float64Histogram
	nodeErrors      metric.Int64Counter
	graphRuns       metric.Int64Counter
	graphLatency    metric.Float64Histogram
	persistFailures metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the shared OTel instruments.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("miniflow")

	nodeExecutions, err := meter.Int64Counter("miniflow.node.executions",
		metric.WithDescription("Number of node executions"),
	)
	if err != nil {
		return nil, err
	}

	nodeLatency, err := meter.Float64Histogram("miniflow.node.latency_ms",
		metric.WithDescription("Node execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	nodeErrors, err := meter.Int64Counter("miniflow.node.errors",
		metric.WithDescription("Number of node execution errors"),
	)
	if err != nil {
		return nil, err
	}

	graphRuns, err := meter.Int64Counter("miniflow.graph.runs",
		metric.WithDescription("Number of finished graph runs by halt reason"),
	)
	if err != nil {
		return nil, err
	}

	graphLatency, err := meter.Float64Histogram("miniflow.graph.latency_ms",
		metric.WithDescription("Graph run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	persistFailures, err := meter.Int64Counter("miniflow.persist.failures",
		metric.WithDescription("Number of step callback failures"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		nodeExecutions:  nodeExecutions,
		nodeLatency:     nodeLatency,
		nodeErrors:      nodeErrors,
		graphRuns:       graphRuns,
		graphLatency:    graphLatency,
		persistFailures: persistFailures,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordStep records a node execution.
func (m *otelMetrics) RecordStep(ctx context.Context, node string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("node", node))

	m.nodeExecutions.Add(ctx, 1, attrs)
	m.nodeLatency.Record(ctx, float64(duration.Milliseconds()), attrs)

	if err != nil {
		m.nodeErrors.Add(ctx, 1, attrs)
	}
}

// RecordRun records a finished run.
func (m *otelMetrics) RecordRun(ctx context.Context, halt string, err error, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("halt", halt),
		attribute.Bool("success", err == nil),
	)
	m.graphRuns.Add(ctx, 1, attrs)
	m.graphLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordPersistFailure records a step callback failure.
func (m *otelMetrics) RecordPersistFailure(ctx context.Context, node string) {
	m.persistFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("node", node)))
}

// Fanout returns a recorder that forwards every call to each of recs.
// nil entries are skipped.
func Fanout(recs ...MetricsRecorder) MetricsRecorder {
	out := make(fanout, 0, len(recs))
	for _, r := range recs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

type fanout []MetricsRecorder

func (f fanout) RecordStep(ctx context.Context, node string, duration time.Duration, err error) {
	for _, r := range f {
		r.RecordStep(ctx, node, duration, err)
	}
}

func (f fanout) RecordRun(ctx context.Context, halt string, err error, duration time.Duration) {
	for _, r := range f {
		r.RecordRun(ctx, halt, err, duration)
	}
}

func (f fanout) RecordPersistFailure(ctx context.Context, node string) {
	for _, r := range f {
		r.RecordPersistFailure(ctx, node)
	}
}
