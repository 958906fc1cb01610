package runstore

import (
	"context"
	"time"

	"github.com/randalmurphal/miniflow/pkg/miniflow"
)

// Recorder returns a step callback that mirrors every step of a run into
// store with StatusRunning. Pass it to miniflow.WithOnStep.
//
// The stored state never carries miniflow.NextKey.
func Recorder(store Store, graphID string) miniflow.StepFunc {
	return func(ctx context.Context, snap miniflow.Snapshot) error {
		state := snap.State
		delete(state, miniflow.NextKey)
		return store.Save(ctx, Record{
			RunID:     snap.RunID,
			GraphID:   graphID,
			Status:    StatusRunning,
			State:     state,
			Log:       snap.Log,
			Step:      snap.Step,
			UpdatedAt: time.Now().UTC(),
		})
	}
}

// Begin records a run that has been accepted but not yet started.
func Begin(ctx context.Context, store Store, runID, graphID string, initial miniflow.State) error {
	state := initial.Clone()
	delete(state, miniflow.NextKey)
	return store.Save(ctx, Record{
		RunID:     runID,
		GraphID:   graphID,
		Status:    StatusPending,
		State:     state,
		Log:       []string{},
		UpdatedAt: time.Now().UTC(),
	})
}

// Finish records the outcome of a run returned by Graph.Run.
// A non-nil runErr marks the run failed; otherwise it is halted.
// result must not be nil.
func Finish(ctx context.Context, store Store, graphID string, result *miniflow.RunResult, runErr error) error {
	rec := Record{
		RunID:     result.RunID,
		GraphID:   graphID,
		Status:    StatusHalted,
		State:     result.State.Clone(),
		Log:       result.Log,
		Halt:      string(result.Halt),
		Step:      result.Steps,
		UpdatedAt: time.Now().UTC(),
	}
	delete(rec.State, miniflow.NextKey)
	if runErr != nil {
		rec.Status = StatusFailed
		rec.Error = runErr.Error()
	}
	return store.Save(ctx, rec)
}
