package miniflow

import (
	"context"
	"fmt"
)

// Snapshot is the per-step view handed to the persistence callback.
// State and Log are copies; the callback may keep them.
type Snapshot struct {
	RunID string
	// Node is the node that just ran.
	Node string
	// Next is the resolved successor, or "" when the run halts after this step.
	Next  string
	Step  int
	State State
	Log   []string
}

// StepFunc is the persistence callback. It runs synchronously after every
// step, at most one call in flight per run. Calls from different runs may
// overlap, so implementations must be safe for concurrent use.
type StepFunc func(ctx context.Context, snap Snapshot) error

// callStep invokes fn, converting a panic into an error.
func callStep(ctx context.Context, fn StepFunc, snap Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step callback panicked: %v", r)
		}
	}()
	return fn(ctx, snap)
}
