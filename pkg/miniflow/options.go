package miniflow

import (
	"log/slog"

	"github.com/randalmurphal/miniflow/pkg/miniflow/observability"
)

// DefaultMaxSteps bounds a run when WithMaxSteps is not given.
const DefaultMaxSteps = 1000

// runConfig holds configuration for one run.
type runConfig struct {
	maxSteps       int
	runID          string
	onStep         StepFunc
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
}

func defaultRunConfig() runConfig {
	return runConfig{
		maxSteps: DefaultMaxSteps,
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxSteps sets the maximum number of node executions.
// Default: 1000. Values <= 0 keep the default.
//
// A run that reaches the limit halts with HaltMaxSteps after exactly n steps.
func WithMaxSteps(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxSteps = n
		}
	}
}

// WithRunID sets the run identifier. A UUID is generated when unset.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithOnStep registers the persistence callback invoked after every step.
// Its failures are logged and counted but never abort the run.
func WithOnStep(fn StepFunc) RunOption {
	return func(c *runConfig) {
		c.onStep = fn
	}
}

// WithLogger sets the logger for run and node events.
// Without it, nothing is logged.
func WithLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder. nil restores the no-op recorder.
func WithMetrics(rec observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if rec == nil {
			rec = observability.NoopMetrics{}
		}
		c.metrics = rec
	}
}

// WithTracing enables OpenTelemetry spans for the run and every step.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}
