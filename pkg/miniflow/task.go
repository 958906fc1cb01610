package miniflow

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// Task is a run executing in its own goroutine.
type Task struct {
	runID  string
	done   chan struct{}
	result *RunResult
	err    error
}

// Start runs the graph in a new goroutine and returns immediately.
// The run ID is fixed before Start returns, so progress can be observed
// through the persistence callback while the task runs.
//
// Cancelling ctx stops the run before its next step.
func (g *Graph) Start(ctx context.Context, initial State, opts ...RunOption) *Task {
	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	runID := cfg.runID
	if runID == "" {
		runID = uuid.NewString()
		opts = append(slices.Clone(opts), WithRunID(runID))
	}

	t := &Task{
		runID: runID,
		done:  make(chan struct{}),
	}
	state := initial.Clone()

	go func() {
		defer close(t.done)
		t.result, t.err = g.Run(ctx, state, opts...)
	}()
	return t
}

// RunID returns the identifier of the task's run.
func (t *Task) RunID() string {
	return t.runID
}

// Done is closed when the run finishes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the run finishes and returns its outcome.
// It may be called any number of times from any goroutine.
func (t *Task) Wait() (*RunResult, error) {
	<-t.done
	return t.result, t.err
}

// WaitContext is Wait bounded by ctx. It returns ctx.Err() if ctx ends
// first; the run itself keeps going.
func (t *Task) WaitContext(ctx context.Context) (*RunResult, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
