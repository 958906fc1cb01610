package miniflow

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/randalmurphal/miniflow/pkg/miniflow/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOptions_Defaults(t *testing.T) {
	cfg := defaultRunConfig()
	assert.Equal(t, DefaultMaxSteps, cfg.maxSteps)
	assert.IsType(t, observability.NoopMetrics{}, cfg.metrics)
	assert.IsType(t, observability.NoopSpanManager{}, cfg.spans)
	assert.False(t, cfg.tracingEnabled)
}

func TestWithMaxSteps(t *testing.T) {
	for _, tt := range []struct {
		in, want int
	}{
		{5, 5},
		{0, DefaultMaxSteps},
		{-3, DefaultMaxSteps},
	} {
		cfg := defaultRunConfig()
		WithMaxSteps(tt.in)(&cfg)
		assert.Equal(t, tt.want, cfg.maxSteps, "WithMaxSteps(%d)", tt.in)
	}
}

func TestWithMetrics_NilRestoresNoop(t *testing.T) {
	cfg := defaultRunConfig()
	WithMetrics(nil)(&cfg)
	assert.IsType(t, observability.NoopMetrics{}, cfg.metrics)
}

func TestWithTracing_Toggle(t *testing.T) {
	cfg := defaultRunConfig()
	WithTracing(true)(&cfg)
	assert.True(t, cfg.tracingEnabled)
	assert.NotNil(t, cfg.spans)

	WithTracing(false)(&cfg)
	assert.False(t, cfg.tracingEnabled)
	assert.IsType(t, observability.NoopSpanManager{}, cfg.spans)
}

func TestWithLogger_EmitsRunAndNodeEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	g := mustBuild(NewBuilder().
		AddNode("a", func(ctx Context, s State) (Result, error) {
			ctx.Logger().Info("inside node")
			return Continue(), nil
		}))

	_, err := g.Run(context.Background(), State{}, WithLogger(logger), WithRunID("log-run"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"run_id":"log-run"`)
	assert.Contains(t, out, `"msg":"inside node"`)
	assert.Contains(t, out, `"node":"a"`)
	assert.Contains(t, out, "graph run halted")
}

func TestWithLogger_PersistFailureIsWarned(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	rec := &snapshotRecorder{err: errBoom}

	g := mustBuild(NewBuilder().AddNode("a", noop))
	_, err := g.Run(context.Background(), State{}, WithLogger(logger), WithOnStep(rec.record))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), "step persist failed")
}

// countingMetrics records calls made by the run loop.
type countingMetrics struct {
	steps, stepErrors, runs, persistFailures int
	lastHalt                                 string
}

func (m *countingMetrics) RecordStep(_ context.Context, _ string, _ time.Duration, err error) {
	m.steps++
	if err != nil {
		m.stepErrors++
	}
}

func (m *countingMetrics) RecordRun(_ context.Context, halt string, _ error, _ time.Duration) {
	m.runs++
	m.lastHalt = halt
}

func (m *countingMetrics) RecordPersistFailure(_ context.Context, _ string) {
	m.persistFailures++
}

func TestWithMetrics_RecordsSteps(t *testing.T) {
	m := &countingMetrics{}
	rec := &snapshotRecorder{err: errBoom}
	g := mustBuild(NewBuilder().AddNode("a", noop).AddNode("b", noop).AddEdge("a", "b"))

	_, err := g.Run(context.Background(), State{}, WithMetrics(m), WithOnStep(rec.record))
	require.NoError(t, err)

	assert.Equal(t, 2, m.steps)
	assert.Equal(t, 0, m.stepErrors)
	assert.Equal(t, 1, m.runs)
	assert.Equal(t, string(HaltNoSuccessor), m.lastHalt)
	assert.Equal(t, 2, m.persistFailures)
}

func TestWithMetrics_RecordsNodeFailure(t *testing.T) {
	m := &countingMetrics{}
	g := mustBuild(NewBuilder().AddNode("a", failing(errBoom)))

	_, err := g.Run(context.Background(), State{}, WithMetrics(m))
	require.Error(t, err)
	assert.Equal(t, 1, m.stepErrors)
	assert.Equal(t, "", m.lastHalt)
}
